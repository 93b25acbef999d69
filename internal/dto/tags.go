package dto

// TagsRequest asks for the tag catalog of one library, optionally scoped
// to an item-type filter.
type TagsRequest struct {
	Auth
	UserID    string   `json:"userId"`
	LibraryID string   `json:"libraryId"`
	Types     []string `json:"types,omitempty"`
}

// TagsResponse is a ready tag catalog. Source names the strategy that
// produced it ("endpoint" or "items"); Loading reports whether a refresh
// is still running behind the snapshot.
type TagsResponse struct {
	Tags        []string `json:"tags"`
	Source      string   `json:"source,omitempty"`
	Cached      bool     `json:"cached,omitempty"`
	Loading     bool     `json:"loading,omitempty"`
	LastUpdated float64  `json:"lastUpdated,omitempty"`
}

// PendingResponse is returned with HTTP 202 while the catalog is still
// being gathered. Clients retry; it is not an error.
type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusPending is the Status value of a PendingResponse.
const StatusPending = "pending"

// TagStatusRequest polls refresh progress for one catalog key.
type TagStatusRequest struct {
	Auth
	UserID    string   `json:"userId"`
	LibraryID string   `json:"libraryId"`
	Types     []string `json:"types,omitempty"`
}

// TagStatusResponse reports how far a catalog refresh has come.
type TagStatusResponse struct {
	Loading     bool     `json:"loading"`
	Processed   int      `json:"processed"`
	Pages       int      `json:"pages"`
	LastUpdated *float64 `json:"lastUpdated"`
}
