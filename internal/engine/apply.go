package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// Guard errors for BeginApply. Both are user-facing notices, not
// failures; nothing is dispatched when one is returned.
var (
	ErrNothingSelected = errors.New("no items selected")
	ErrNothingStaged   = errors.New("no tag changes staged")
	ErrApplyInFlight   = errors.New("an apply is already running")
)

// BeginApply builds the bulk change set: one entry per selected item,
// every entry carrying the identical staged add and remove lists. The
// apply control is disabled until CompleteApply runs.
func (e *Engine) BeginApply() (dto.ApplyRequest, error) {
	if e.applying {
		return dto.ApplyRequest{}, ErrApplyInFlight
	}
	if e.Selection.Count() == 0 {
		return dto.ApplyRequest{}, ErrNothingSelected
	}
	add := e.Tags.AddList()
	remove := e.Tags.RemoveList()
	if len(add) == 0 && len(remove) == 0 {
		return dto.ApplyRequest{}, ErrNothingStaged
	}
	changes := make([]dto.TagChange, 0, e.Selection.Count())
	for _, id := range e.Selection.IDs() {
		changes = append(changes, dto.TagChange{ID: id, Add: add, Remove: remove})
	}
	e.applying = true
	return dto.ApplyRequest{UserID: e.UserID, Changes: changes}, nil
}

// ApplyOutcome partitions an apply response into per-item successes and
// failures. Err is set only for transport-level failures, where no
// per-item data exists.
type ApplyOutcome struct {
	Succeeded []dto.ItemUpdate
	Failed    []dto.ItemUpdate
	Err       error
}

// Summary renders the outcome for the status line.
func (o ApplyOutcome) Summary() string {
	if o.Err != nil {
		return "apply failed: " + o.Err.Error()
	}
	n := len(o.Succeeded)
	s := fmt.Sprintf("%d %s updated", n, plural(n, "item", "items"))
	if m := len(o.Failed); m > 0 {
		s += fmt.Sprintf(", %d failed", m)
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// CompleteApply digests the apply response. The apply control re-enables
// no matter how the call went. Successful items have their cached tag
// sets patched to the server's final lists; the staged map is cleared
// only when nothing failed, so a partial failure can be retried.
func (e *Engine) CompleteApply(resp *dto.ApplyResponse, err error) ApplyOutcome {
	e.applying = false
	if err != nil {
		return ApplyOutcome{Err: err}
	}
	var out ApplyOutcome
	for _, u := range resp.Updated {
		if u.Failed() {
			out.Failed = append(out.Failed, u)
			continue
		}
		out.Succeeded = append(out.Succeeded, u)
		if len(u.Tags) > 0 {
			e.patchItemTags(u.ID, u.Tags)
		}
	}
	if len(out.Failed) == 0 {
		e.ClearStaged()
	}
	return out
}

// DisplayName resolves an id for outcome lines: the cached item name
// when known, the bare id otherwise.
func (e *Engine) DisplayName(id string) string {
	if it, ok := e.byID[id]; ok && it.Name != "" {
		return it.Name
	}
	if it, ok := e.Selection.meta[id]; ok && it.Name != "" {
		return it.Name
	}
	return id
}

// Describe renders one item outcome for the breakdown list.
func (e *Engine) Describe(u dto.ItemUpdate) string {
	name := e.DisplayName(u.ID)
	if u.Failed() {
		return fmt.Sprintf("%s: %s", name, strings.Join(u.Errors, "; "))
	}
	var parts []string
	if len(u.Added) > 0 {
		parts = append(parts, "+"+strings.Join(u.Added, " +"))
	}
	if len(u.Removed) > 0 {
		parts = append(parts, "-"+strings.Join(u.Removed, " -"))
	}
	if len(parts) == 0 {
		return name + ": no changes"
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(parts, " "))
}

// ExportRequest builds an export request from the current filter state.
// The selection is deliberately not consulted; export covers every
// match of the filters as they stand.
func (e *Engine) ExportRequest() dto.SearchRequest {
	f := e.Query.Filters
	sortBy, sortOrder := dto.NormalizeSort(f.SortBy, f.SortOrder)
	return dto.SearchRequest{
		UserID:             e.UserID,
		LibraryID:          e.LibraryID,
		Types:              f.Types,
		IncludeTags:        f.IncludeTags,
		ExcludeTags:        f.ExcludeTags,
		TitleQuery:         strings.TrimSpace(f.TitleQuery),
		ExcludeCollections: f.ExcludeCollections,
		SortBy:             sortBy,
		SortOrder:          sortOrder,
	}
}
