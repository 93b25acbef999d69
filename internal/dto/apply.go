package dto

// TagChange is one item's tag delta inside an apply request. A bulk apply
// sends the same Add/Remove lists for every selected item.
type TagChange struct {
	ID     string   `json:"id"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// ApplyRequest applies tag changes item by item.
type ApplyRequest struct {
	Auth
	UserID  string      `json:"userId"`
	Changes []TagChange `json:"changes"`
}

// ItemUpdate is the per-item outcome of an apply. A failed item carries
// its reasons in Errors and leaves Added/Removed empty; one item's
// failure never aborts the rest of the batch.
type ItemUpdate struct {
	ID      string   `json:"id"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Tags    []string `json:"tags,omitempty"`
	Errors  []string `json:"errors"`
}

// Failed reports whether this item's update was rejected.
func (u ItemUpdate) Failed() bool {
	return len(u.Errors) > 0
}

// ApplyResponse lists every attempted item in request order.
type ApplyResponse struct {
	Updated []ItemUpdate `json:"updated"`
}
