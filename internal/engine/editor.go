package engine

import (
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

// Editor is the single inline tag edit session. At most one item has an
// open editor; opening another item's editor closes this one without
// saving.
type Editor struct {
	open     bool
	itemID   string
	baseline []string
	draft    string
	saving   bool
	err      string
}

// EditorSubmit describes what saving the editor requires. Local submits
// changed only formatting; the row is already patched and nothing needs
// the network.
type EditorSubmit struct {
	ItemID string
	Add    []string
	Remove []string
	Local  bool
}

// OpenEditor opens the inline editor for an item, seeding the draft from
// its current tags. Opening the item that is already being edited closes
// the editor instead; opening a different item abandons the current
// draft first. Returns whether an editor is open afterwards.
func (e *Engine) OpenEditor(id string) bool {
	ed := &e.Editor
	if ed.open && ed.itemID == id {
		e.CloseEditor()
		return false
	}
	it, ok := e.byID[id]
	if !ok {
		return ed.open
	}
	baseline := make([]string, len(it.Tags))
	copy(baseline, it.Tags)
	*ed = Editor{
		open:     true,
		itemID:   id,
		baseline: baseline,
		draft:    tagutil.Join(baseline),
	}
	return true
}

// CloseEditor abandons the session and its draft.
func (e *Engine) CloseEditor() {
	e.Editor = Editor{}
}

// SetDraft replaces the draft text.
func (e *Engine) SetDraft(s string) {
	if e.Editor.open {
		e.Editor.draft = s
	}
}

// EditorDiff computes the staged delta: tags in the draft but not the
// baseline become additions, tags in the baseline but missing from the
// draft become removals. Comparison is case-insensitive.
func (e *Engine) EditorDiff() (add, remove []string) {
	ed := &e.Editor
	if !ed.open {
		return nil, nil
	}
	drafted := tagutil.Dedupe(tagutil.Split(ed.draft))
	base := make(map[string]bool, len(ed.baseline))
	for _, t := range ed.baseline {
		base[tagutil.Fold(t)] = true
	}
	inDraft := make(map[string]bool, len(drafted))
	for _, t := range drafted {
		key := tagutil.Fold(t)
		inDraft[key] = true
		if !base[key] {
			add = append(add, t)
		}
	}
	for _, t := range ed.baseline {
		if !inDraft[tagutil.Fold(t)] {
			remove = append(remove, t)
		}
	}
	return add, remove
}

// SubmitEditor resolves the session. An empty delta patches the row with
// the reformatted draft and closes without any network call; otherwise
// the session stays open, marked saving, and the caller dispatches the
// returned single-item change.
func (e *Engine) SubmitEditor() (EditorSubmit, bool) {
	ed := &e.Editor
	if !ed.open || ed.saving {
		return EditorSubmit{}, false
	}
	add, remove := e.EditorDiff()
	if len(add) == 0 && len(remove) == 0 {
		drafted := tagutil.Dedupe(tagutil.Split(ed.draft))
		id := ed.itemID
		e.patchItemTags(id, drafted)
		e.CloseEditor()
		return EditorSubmit{ItemID: id, Local: true}, true
	}
	ed.saving = true
	ed.err = ""
	return EditorSubmit{ItemID: ed.itemID, Add: add, Remove: remove}, true
}

// CompleteEditorSave applies the outcome of an editor save. Success
// patches the row, the cache and any selection snapshot with the
// server's final tag list and closes the session; failure keeps the
// session open with the draft intact so nothing typed is lost.
func (e *Engine) CompleteEditorSave(itemID string, update dto.ItemUpdate, err error) {
	if err == nil && update.Failed() {
		err = errorFromItem(update)
	}
	if err == nil {
		if len(update.Tags) > 0 {
			e.patchItemTags(itemID, update.Tags)
		}
		if e.Editor.open && e.Editor.itemID == itemID {
			e.CloseEditor()
		}
		return
	}
	if e.Editor.open && e.Editor.itemID == itemID {
		e.Editor.saving = false
		e.Editor.err = err.Error()
	}
}

// patchItemTags updates every copy of an item's tags the engine holds:
// the cache, the rendered row, and the selection snapshot.
func (e *Engine) patchItemTags(id string, tags []string) {
	if it, ok := e.byID[id]; ok {
		it.Tags = tags
		e.byID[id] = it
	}
	for i := range e.Query.items {
		if e.Query.items[i].ID == id {
			e.Query.items[i].Tags = tags
			break
		}
	}
	e.Selection.patchTags(id, tags)
}

// Open reports whether a session exists and for which item.
func (ed *Editor) Open() (string, bool) { return ed.itemID, ed.open }

// Draft returns the current draft text.
func (ed *Editor) Draft() string { return ed.draft }

// Saving reports an in-flight save.
func (ed *Editor) Saving() bool { return ed.saving }

// Err returns the last save failure, or "".
func (ed *Editor) Err() string { return ed.err }

type itemUpdateError struct {
	reasons string
}

func (e *itemUpdateError) Error() string { return e.reasons }

func errorFromItem(u dto.ItemUpdate) error {
	return &itemUpdateError{reasons: strings.Join(u.Errors, "; ")}
}
