package tui

import (
	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/engine"
)

// Async outcomes delivered back into Update. Search and tag messages
// carry the generation captured when the request was issued; Update
// hands it to the engine, which discards mismatches, so a slow response
// can never overwrite a newer one.

// searchResultMsg is one search page, or the failure to fetch it.
type searchResultMsg struct {
	gen  int
	resp *dto.SearchResponse
	err  error
}

// tagsResultMsg is one tag catalog outcome: ready, still gathering, or
// failed.
type tagsResultMsg struct {
	gen    int
	result engine.TagLoadResult
}

// tagRetryMsg fires when the pending-catalog retry timer elapses. A
// reload issued in the meantime bumps the generation and the timer is
// ignored.
type tagRetryMsg struct {
	gen int
}

// applyResultMsg is the bulk apply outcome.
type applyResultMsg struct {
	resp *dto.ApplyResponse
	err  error
}

// editorSaveMsg is the single-item outcome of an inline editor save.
type editorSaveMsg struct {
	itemID string
	update dto.ItemUpdate
	err    error
}

// exportResultMsg reports where the export landed, or why it did not.
type exportResultMsg struct {
	path string
	err  error
}

// clearNoticeMsg expires a transient notice. The generation guards
// against wiping a notice set after this timer started.
type clearNoticeMsg struct {
	gen int
}
