// Package engine holds the client-side state for searching, selecting
// and retagging library items. All mutation goes through transition
// methods on Engine; rendering layers only read. Network work happens
// elsewhere: transitions that need the server return an intent value
// describing the request, and the caller reports the outcome back with
// the generation token it was handed, so responses that arrive late can
// never clobber newer state.
package engine

import (
	"github.com/blackwell-systems/tagctl/internal/dto"
)

// Engine is the owned state object for one library session.
type Engine struct {
	UserID    string
	LibraryID string

	Query     Query
	Selection Selection
	Tags      TagPanel
	Editor    Editor

	applying bool

	// byID caches every item seen for the current query fingerprint so
	// selections keep their metadata across page changes. A fresh query
	// is the only thing that evicts it.
	byID map[string]dto.Item
}

// New creates an Engine scoped to one user and library.
func New(userID, libraryID string) *Engine {
	e := &Engine{
		UserID:    userID,
		LibraryID: libraryID,
		byID:      make(map[string]dto.Item),
	}
	e.Query.pageSize = dto.DefaultPageLimit
	e.Selection.init()
	e.Tags.init()
	return e
}

// Item returns the cached metadata for an id, if any page of the current
// query has carried it.
func (e *Engine) Item(id string) (dto.Item, bool) {
	it, ok := e.byID[id]
	return it, ok
}

// Applying reports whether a bulk apply is in flight. The apply control
// stays disabled while it is.
func (e *Engine) Applying() bool { return e.applying }
