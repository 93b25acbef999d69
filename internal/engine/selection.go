package engine

import (
	"fmt"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// Selection tracks which items are marked for a bulk change. It holds
// both the id set and a metadata snapshot per id; the two are updated
// together so one can never name an item the other does not know.
// Selections accumulate across pages of the same query.
type Selection struct {
	ids  map[string]bool
	meta map[string]dto.Item
}

// PageState is the tri-state of the select-all control over the rows
// currently rendered.
type PageState int

const (
	PageNone PageState = iota
	PageSome
	PageAll
)

func (s *Selection) init() {
	s.ids = make(map[string]bool)
	s.meta = make(map[string]dto.Item)
}

// Set marks or unmarks one item. The full item is taken, not just the
// id, so the metadata snapshot stays in step with the set.
func (s *Selection) Set(it dto.Item, on bool) {
	if it.ID == "" {
		return
	}
	if on {
		s.ids[it.ID] = true
		s.meta[it.ID] = it
		return
	}
	delete(s.ids, it.ID)
	delete(s.meta, it.ID)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]bool)
	s.meta = make(map[string]dto.Item)
}

// Has reports whether the item is selected.
func (s *Selection) Has(id string) bool { return s.ids[id] }

// Count returns how many items are selected across all pages.
func (s *Selection) Count() int { return len(s.ids) }

// Items returns the selected items' metadata snapshots in a stable
// name order.
func (s *Selection) Items() []dto.Item {
	out := make([]dto.Item, 0, len(s.meta))
	for _, it := range s.meta {
		out = append(out, it)
	}
	dto.SortItems(out, dto.SortByName, dto.SortAscending)
	return out
}

// IDs returns the selected ids in the same stable order as Items.
func (s *Selection) IDs() []string {
	items := s.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// Summary renders the selection count for display.
func (s *Selection) Summary() string {
	n := len(s.ids)
	if n == 1 {
		return "1 item selected"
	}
	return fmt.Sprintf("%d items selected", n)
}

// refresh replaces metadata snapshots for selected items that appear in
// the given rows, so page revisits pick up server-side changes.
func (s *Selection) refresh(items []dto.Item) {
	for _, it := range items {
		if s.ids[it.ID] {
			s.meta[it.ID] = it
		}
	}
}

// patchTags replaces the tag snapshot of a selected item after an apply
// or inline edit succeeded.
func (s *Selection) patchTags(id string, tags []string) {
	if it, ok := s.meta[id]; ok {
		it.Tags = tags
		s.meta[id] = it
	}
}

// SetSelected marks or unmarks an item by id, resolving metadata from
// the query cache. Works for rows that are not on the current page; an
// unknown id is ignored rather than recorded without metadata.
func (e *Engine) SetSelected(id string, on bool) {
	if !on {
		if it, ok := e.Selection.meta[id]; ok {
			e.Selection.Set(it, false)
		}
		return
	}
	if it, ok := e.byID[id]; ok {
		e.Selection.Set(it, true)
	}
}

// ToggleSelected flips one item's selection.
func (e *Engine) ToggleSelected(id string) {
	e.SetSelected(id, !e.Selection.Has(id))
}

// SelectPage marks or unmarks every row on the current page. Rows from
// other pages keep their state; selection is cumulative per query.
func (e *Engine) SelectPage(on bool) {
	for _, it := range e.Query.items {
		e.Selection.Set(it, on)
	}
}

// TogglePage applies the select-all control: a page with every row
// selected clears, anything else selects the rest.
func (e *Engine) TogglePage() {
	e.SelectPage(e.PageSelection() != PageAll)
}

// PageSelection reports the tri-state of the current page's rows.
func (e *Engine) PageSelection() PageState {
	total := len(e.Query.items)
	if total == 0 {
		return PageNone
	}
	selected := 0
	for _, it := range e.Query.items {
		if e.Selection.Has(it.ID) {
			selected++
		}
	}
	switch selected {
	case 0:
		return PageNone
	case total:
		return PageAll
	default:
		return PageSome
	}
}
