package engine

import (
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

// TagState is a tag's staged change: add it to or remove it from every
// selected item, or nothing.
type TagState int

const (
	TagNone TagState = iota
	TagAdd
	TagRemove
)

// TagPanel holds the tag catalog and the staged add/remove map. The map
// is the single source of truth; the add and remove lists the user sees
// are derived from it, and edits to those lists reconcile back into it.
type TagPanel struct {
	catalog []string
	source  string
	search  string

	pending map[string]TagState // folded tag → staged state
	casing  map[string]string   // folded tag → display casing
	order   []string            // folded tags in first-staged order

	gen        int
	loading    bool
	pendingMsg string
	err        string
}

func (p *TagPanel) init() {
	p.pending = make(map[string]TagState)
	p.casing = make(map[string]string)
}

// TagLoadIntent is the catalog request a BeginTagLoad transition wants
// dispatched.
type TagLoadIntent struct {
	Gen int
	Req dto.TagsRequest
}

// TagLoadResult is the outcome of one catalog fetch: a catalog, a
// still-gathering notice, or a failure.
type TagLoadResult struct {
	Tags    []string
	Source  string
	Pending bool
	Message string
	Err     error
}

// BeginTagLoad starts a catalog load. Any response or retry timer from
// an earlier generation becomes stale the moment this runs.
func (e *Engine) BeginTagLoad() TagLoadIntent {
	p := &e.Tags
	p.gen++
	p.loading = true
	p.err = ""
	return TagLoadIntent{
		Gen: p.gen,
		Req: dto.TagsRequest{
			UserID:    e.UserID,
			LibraryID: e.LibraryID,
			Types:     e.Query.Filters.Types,
		},
	}
}

// CompleteTagLoad applies a catalog outcome. A ready catalog replaces
// the old one and cancels staged entries whose tag vanished from it;
// staged tags the catalog never listed are the user's own new tags and
// survive the reload. A pending outcome keeps whatever catalog exists
// and records the notice. A failure clears catalog and staged state
// both. Stale generations are discarded.
func (e *Engine) CompleteTagLoad(gen int, res TagLoadResult) bool {
	p := &e.Tags
	if gen != p.gen {
		return false
	}
	p.loading = false
	switch {
	case res.Err != nil:
		p.catalog = nil
		p.source = ""
		p.pendingMsg = ""
		p.err = res.Err.Error()
		p.clearStaged()
	case res.Pending:
		p.err = ""
		p.pendingMsg = res.Message
		if p.pendingMsg == "" {
			p.pendingMsg = "Gathering tags, please try again shortly."
		}
	default:
		p.pruneVanished(res.Tags)
		p.catalog = res.Tags
		p.source = res.Source
		p.pendingMsg = ""
		p.err = ""
	}
	return true
}

// pruneVanished cancels staged entries for tags the old catalog listed
// but the new one does not.
func (p *TagPanel) pruneVanished(next []string) {
	if len(p.catalog) == 0 || len(p.pending) == 0 {
		return
	}
	fresh := make(map[string]bool, len(next))
	for _, tag := range next {
		fresh[tagutil.Fold(tag)] = true
	}
	var gone []string
	for _, tag := range p.catalog {
		key := tagutil.Fold(tag)
		if _, staged := p.pending[key]; staged && !fresh[key] {
			gone = append(gone, key)
		}
	}
	for _, key := range gone {
		p.setState(key, TagNone)
	}
}

// ToggleTag cycles a tag through none, add, remove and back to none.
func (e *Engine) ToggleTag(tag string) {
	p := &e.Tags
	switch p.State(tag) {
	case TagNone:
		p.setState(tag, TagAdd)
	case TagAdd:
		p.setState(tag, TagRemove)
	case TagRemove:
		p.setState(tag, TagNone)
	}
}

// SetTagState stages a tag directly. TagNone cancels a staged entry,
// which is what removing a chip does.
func (e *Engine) SetTagState(tag string, st TagState) {
	e.Tags.setState(tag, st)
}

// SetAddList reconciles a user-edited add list back into the staged
// map: every listed tag becomes a staged add, and adds missing from the
// list are canceled. Remove entries are untouched unless the list names
// them, in which case the add wins.
func (e *Engine) SetAddList(raw string) {
	e.Tags.reconcileList(raw, TagAdd)
}

// SetRemoveList is SetAddList's counterpart for the remove list.
func (e *Engine) SetRemoveList(raw string) {
	e.Tags.reconcileList(raw, TagRemove)
}

// SetTagSearch filters the visible catalog by a case-insensitive
// substring.
func (e *Engine) SetTagSearch(q string) {
	e.Tags.search = q
}

func (p *TagPanel) setState(tag string, st TagState) {
	key := tagutil.Fold(tag)
	if key == "" {
		return
	}
	if st == TagNone {
		if _, ok := p.pending[key]; ok {
			delete(p.pending, key)
			delete(p.casing, key)
			p.order = dropKey(p.order, key)
		}
		return
	}
	if _, ok := p.pending[key]; !ok {
		p.order = append(p.order, key)
		p.casing[key] = strings.TrimSpace(tag)
	}
	p.pending[key] = st
}

func (p *TagPanel) reconcileList(raw string, st TagState) {
	listed := make(map[string]bool)
	for _, tag := range tagutil.Dedupe(tagutil.Split(raw)) {
		listed[tagutil.Fold(tag)] = true
		p.setState(tag, st)
	}
	var stale []string
	for key, cur := range p.pending {
		if cur == st && !listed[key] {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		p.setState(key, TagNone)
	}
}

func (p *TagPanel) clearStaged() {
	p.pending = make(map[string]TagState)
	p.casing = make(map[string]string)
	p.order = nil
}

// ClearStaged wipes the staged map, keeping the catalog. Runs after a
// successful apply so the next edit starts clean.
func (e *Engine) ClearStaged() {
	e.Tags.clearStaged()
}

func dropKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// State returns the staged state of a tag.
func (p *TagPanel) State(tag string) TagState {
	return p.pending[tagutil.Fold(tag)]
}

// AddList returns the staged additions in first-staged order, with the
// casing each was staged under.
func (p *TagPanel) AddList() []string { return p.staged(TagAdd) }

// RemoveList returns the staged removals in first-staged order.
func (p *TagPanel) RemoveList() []string { return p.staged(TagRemove) }

func (p *TagPanel) staged(st TagState) []string {
	var out []string
	for _, key := range p.order {
		if p.pending[key] == st {
			out = append(out, p.casing[key])
		}
	}
	return out
}

// Dirty reports whether anything is staged.
func (p *TagPanel) Dirty() bool { return len(p.pending) > 0 }

// Catalog returns the full loaded catalog.
func (p *TagPanel) Catalog() []string { return p.catalog }

// Visible returns the catalog filtered by the current search.
func (p *TagPanel) Visible() []string {
	q := tagutil.Fold(p.search)
	if q == "" {
		return p.catalog
	}
	var out []string
	for _, tag := range p.catalog {
		if strings.Contains(strings.ToLower(tag), q) {
			out = append(out, tag)
		}
	}
	return out
}

// Search returns the current catalog filter text.
func (p *TagPanel) Search() string { return p.search }

// Source names the strategy that produced the catalog.
func (p *TagPanel) Source() string { return p.source }

// Gen returns the current load generation; retry timers carry it so a
// newer load supersedes them.
func (p *TagPanel) Gen() int { return p.gen }

// Loading reports an in-flight catalog load.
func (p *TagPanel) Loading() bool { return p.loading }

// PendingMessage returns the server's still-gathering notice, or "".
func (p *TagPanel) PendingMessage() string { return p.pendingMsg }

// Err returns the failure text of the last load, or "".
func (p *TagPanel) Err() string { return p.err }
