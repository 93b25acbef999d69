package engine

import (
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

// Filters is the user's filter input state. Pagination deliberately
// lives outside; two searches with equal Filters are the same query on
// different pages.
type Filters struct {
	TitleQuery         string
	IncludeTags        string
	ExcludeTags        string
	Types              []string
	ExcludeCollections bool
	SortBy             string
	SortOrder          string
}

// Fingerprint serializes every query-defining field into a comparison
// key. Inputs are normalized first so reordering tags or changing their
// case does not count as a new query.
func (f Filters) Fingerprint() string {
	sortBy, sortOrder := dto.NormalizeSort(f.SortBy, f.SortOrder)
	parts := []string{
		strings.ToLower(strings.TrimSpace(f.TitleQuery)),
		strings.ToLower(strings.Join(tagutil.Normalize(f.IncludeTags), ";")),
		strings.ToLower(strings.Join(tagutil.Normalize(f.ExcludeTags), ";")),
		strings.ToLower(strings.Join(tagutil.NormalizeList(f.Types), ";")),
		boolKey(f.ExcludeCollections),
		sortBy,
		sortOrder,
	}
	return strings.Join(parts, "\x1f")
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Query tracks search state: the committed fingerprint, the pagination
// cursor, result rows, and the generation token that stale responses
// are rejected with.
type Query struct {
	Filters Filters

	items    []dto.Item
	pageSize int

	// live state, committed tentatively at dispatch
	fingerprint string
	offset      int
	total       int
	searched    bool

	// last successfully completed state, restored when a search fails
	okFingerprint string
	okOffset      int
	okTotal       int
	okSearched    bool

	gen     int
	loading bool
	err     string
}

// SearchIntent describes the request a BeginSearch transition wants
// dispatched. Gen must be echoed back to CompleteSearch or FailSearch.
type SearchIntent struct {
	Gen   int
	Fresh bool
	Req   dto.SearchRequest
}

// BeginSearch prepares a search targeting the given offset. When the
// filter fingerprint changed since the last committed query, or reset is
// forced, the offset snaps to zero and the result cache and selection
// are dropped before anything is dispatched, so stale rows can never be
// acted on while the request runs.
func (e *Engine) BeginSearch(targetOffset int, reset bool) SearchIntent {
	q := &e.Query
	fp := q.Filters.Fingerprint()
	fresh := reset || fp != q.fingerprint

	if fresh {
		targetOffset = 0
		q.items = nil
		q.total = 0
		q.searched = false
		e.byID = make(map[string]dto.Item)
		e.Selection.Clear()
	}
	if targetOffset < 0 {
		targetOffset = 0
	}

	q.gen++
	q.loading = true
	q.err = ""
	q.offset = targetOffset
	q.fingerprint = fp

	sortBy, sortOrder := dto.NormalizeSort(q.Filters.SortBy, q.Filters.SortOrder)
	limit := q.pageSize
	return SearchIntent{
		Gen:   q.gen,
		Fresh: fresh,
		Req: dto.SearchRequest{
			UserID:             e.UserID,
			LibraryID:          e.LibraryID,
			Types:              q.Filters.Types,
			IncludeTags:        q.Filters.IncludeTags,
			ExcludeTags:        q.Filters.ExcludeTags,
			TitleQuery:         strings.TrimSpace(q.Filters.TitleQuery),
			ExcludeCollections: q.Filters.ExcludeCollections,
			SortBy:             sortBy,
			SortOrder:          sortOrder,
			StartIndex:         targetOffset,
			Limit:              &limit,
		},
	}
}

// CompleteSearch commits a search response. Responses from superseded
// generations are discarded without touching state; the return value
// reports whether this one counted.
func (e *Engine) CompleteSearch(gen int, resp *dto.SearchResponse) bool {
	q := &e.Query
	if gen != q.gen {
		return false
	}
	q.loading = false
	q.err = ""

	items := resp.Items
	dto.SortItems(items, q.Filters.SortBy, q.Filters.SortOrder)
	q.items = items
	q.total = resp.Total()
	q.searched = true

	q.okFingerprint = q.fingerprint
	q.okOffset = q.offset
	q.okTotal = q.total
	q.okSearched = true

	for _, it := range items {
		e.byID[it.ID] = it
	}
	e.Selection.refresh(items)
	return true
}

// FailSearch records a search failure and rolls the cursor back to the
// last completed state, so a failed page turn leaves the machine where
// it was. Stale generations are discarded.
func (e *Engine) FailSearch(gen int, err error) bool {
	q := &e.Query
	if gen != q.gen {
		return false
	}
	q.loading = false
	q.err = err.Error()
	q.fingerprint = q.okFingerprint
	q.offset = q.okOffset
	q.total = q.okTotal
	q.searched = q.okSearched
	return true
}

// Items returns the current result page, already sorted for display.
func (q *Query) Items() []dto.Item { return q.items }

// Offset returns the committed pagination offset.
func (q *Query) Offset() int { return q.offset }

// Total returns the match total for the committed query.
func (q *Query) Total() int { return q.total }

// PageSize returns the fixed page window.
func (q *Query) PageSize() int { return q.pageSize }

// Loading reports an in-flight search.
func (q *Query) Loading() bool { return q.loading }

// Err returns the failure text of the last search, or "".
func (q *Query) Err() string { return q.err }

// Searched reports whether any search has completed for this query.
func (q *Query) Searched() bool { return q.searched }

// Empty reports a completed query with no matches, which renders as a
// distinct empty state rather than a bare table.
func (q *Query) Empty() bool {
	return q.searched && !q.loading && q.err == "" && q.total == 0
}

// CanPrev reports whether an earlier page exists.
func (q *Query) CanPrev() bool { return q.offset > 0 }

// CanNext reports whether a later page exists.
func (q *Query) CanNext() bool { return q.offset+q.pageSize < q.total }

// PrevOffset returns the offset one page back, clamped at zero.
func (q *Query) PrevOffset() int {
	o := q.offset - q.pageSize
	if o < 0 {
		o = 0
	}
	return o
}

// NextOffset returns the offset one page forward.
func (q *Query) NextOffset() int { return q.offset + q.pageSize }
