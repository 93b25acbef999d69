package dto

// Sort fields and orders accepted by search and export.
const (
	SortByName       = "SortName"
	SortByPremiere   = "PremiereDate"
	SortAscending    = "Ascending"
	SortDescending   = "Descending"
	DefaultSortBy    = SortByName
	DefaultSortOrder = SortAscending
	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

// Item is the serialized form of a library item as returned by search and
// export. Tags holds the merged, deduplicated tag list; PremiereDate stays
// a raw server timestamp string so absent and malformed values survive the
// round trip.
type Item struct {
	ID             string   `json:"Id"`
	Type           string   `json:"Type"`
	Name           string   `json:"Name"`
	SortName       string   `json:"SortName"`
	Path           string   `json:"Path"`
	Tags           []string `json:"Tags"`
	PremiereDate   string   `json:"PremiereDate,omitempty"`
	ProductionYear int      `json:"ProductionYear,omitempty"`
}

// SearchRequest carries the full filter state plus a pagination window.
// Export reuses the same shape and ignores the pagination fields. Limit
// is a pointer so the proxy can tell an omitted limit (page-size default)
// from an explicit zero (counts only, no rows).
type SearchRequest struct {
	Auth
	UserID             string   `json:"userId"`
	LibraryID          string   `json:"libraryId"`
	Types              []string `json:"types,omitempty"`
	IncludeTags        string   `json:"includeTags,omitempty"`
	ExcludeTags        string   `json:"excludeTags,omitempty"`
	TitleQuery         string   `json:"titleQuery,omitempty"`
	ExcludeCollections bool     `json:"excludeCollections,omitempty"`
	SortBy             string   `json:"sortBy,omitempty"`
	SortOrder          string   `json:"sortOrder,omitempty"`
	StartIndex         int      `json:"startIndex"`
	Limit              *int     `json:"limit,omitempty"`
}

// SearchResponse is one page of matches. TotalMatchCount is the
// post-filter match total; TotalRecordCount is kept for older proxies
// that only report the pre-filter count.
type SearchResponse struct {
	TotalRecordCount int    `json:"TotalRecordCount"`
	TotalMatchCount  *int   `json:"TotalMatchCount,omitempty"`
	ReturnedCount    int    `json:"ReturnedCount"`
	Items            []Item `json:"Items"`
	SortBy           string `json:"SortBy,omitempty"`
	SortOrder        string `json:"SortOrder,omitempty"`
}

// Total returns the authoritative match count: TotalMatchCount when the
// proxy sent one, TotalRecordCount otherwise.
func (r *SearchResponse) Total() int {
	if r.TotalMatchCount != nil {
		return *r.TotalMatchCount
	}
	return r.TotalRecordCount
}
