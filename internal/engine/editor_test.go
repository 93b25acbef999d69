package engine_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/engine"
)

func editorEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New("u1", "lib1")
	completeSearch(t, e, e.BeginSearch(0, false), 2,
		item("a", "Alien", "horror", "classic"), item("b", "Blade"))
	return e
}

func TestOpenEditor_SeedsDraftFromTags(t *testing.T) {
	e := editorEngine(t)
	if !e.OpenEditor("a") {
		t.Fatal("OpenEditor returned false for known item")
	}
	id, open := e.Editor.Open()
	if !open || id != "a" {
		t.Fatalf("Open = %q/%v, want a/true", id, open)
	}
	if got := e.Editor.Draft(); got != "horror; classic" {
		t.Errorf("draft = %q, want %q", got, "horror; classic")
	}
}

func TestOpenEditor_UnknownItem(t *testing.T) {
	e := editorEngine(t)
	if e.OpenEditor("ghost") {
		t.Error("OpenEditor accepted unknown id")
	}
	if _, open := e.Editor.Open(); open {
		t.Error("editor open after unknown id")
	}
}

func TestOpenEditor_SameItemTogglesClosed(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	if e.OpenEditor("a") {
		t.Error("reopening same item reported open")
	}
	if _, open := e.Editor.Open(); open {
		t.Error("editor still open after toggle")
	}
}

func TestOpenEditor_SwitchesItems(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("horror, classic, extra")
	if !e.OpenEditor("b") {
		t.Fatal("switching items returned false")
	}
	id, _ := e.Editor.Open()
	if id != "b" {
		t.Errorf("open item = %q, want b", id)
	}
	if got := e.Editor.Draft(); got != "" {
		t.Errorf("draft carried across items: %q", got)
	}
}

// --- Diff ---

func TestEditorDiff_AddAndRemove(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("classic, Noir")

	add, remove := e.EditorDiff()
	if !reflect.DeepEqual(add, []string{"Noir"}) {
		t.Errorf("add = %v, want [Noir]", add)
	}
	if !reflect.DeepEqual(remove, []string{"horror"}) {
		t.Errorf("remove = %v, want [horror]", remove)
	}
}

func TestEditorDiff_CaseChangeIsNoChange(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("HORROR; Classic")

	add, remove := e.EditorDiff()
	if len(add) != 0 || len(remove) != 0 {
		t.Errorf("diff = +%v -%v, want empty", add, remove)
	}
}

// --- Submit ---

func TestSubmitEditor_NoChangesClosesLocally(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("HORROR; Classic")

	sub, ok := e.SubmitEditor()
	if !ok || !sub.Local {
		t.Fatalf("submit = %+v/%v, want local submit", sub, ok)
	}
	if _, open := e.Editor.Open(); open {
		t.Error("editor open after local close")
	}
	// Retyped casing is kept locally even though nothing was sent.
	it, _ := e.Item("a")
	if !reflect.DeepEqual(it.Tags, []string{"HORROR", "Classic"}) {
		t.Errorf("tags = %v, want [HORROR Classic]", it.Tags)
	}
}

func TestSubmitEditor_DispatchesDiff(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("classic, noir")

	sub, ok := e.SubmitEditor()
	if !ok || sub.Local {
		t.Fatalf("submit = %+v/%v, want remote submit", sub, ok)
	}
	if sub.ItemID != "a" {
		t.Errorf("ItemID = %q, want a", sub.ItemID)
	}
	if !reflect.DeepEqual(sub.Add, []string{"noir"}) || !reflect.DeepEqual(sub.Remove, []string{"horror"}) {
		t.Errorf("diff = +%v -%v", sub.Add, sub.Remove)
	}
	if !e.Editor.Saving() {
		t.Error("not saving after dispatch")
	}
	if _, ok := e.SubmitEditor(); ok {
		t.Error("double submit accepted while saving")
	}
}

func TestCompleteEditorSave_SuccessPatchesEverywhere(t *testing.T) {
	e := editorEngine(t)
	e.SetSelected("a", true)
	e.OpenEditor("a")
	e.SetDraft("classic, noir")
	e.SubmitEditor()

	final := []string{"classic", "noir"}
	e.CompleteEditorSave("a", dto.ItemUpdate{ID: "a", Tags: final}, nil)

	if _, open := e.Editor.Open(); open {
		t.Error("editor open after successful save")
	}
	it, _ := e.Item("a")
	if !reflect.DeepEqual(it.Tags, final) {
		t.Errorf("cached tags = %v, want %v", it.Tags, final)
	}
	if got := e.Query.Items()[0].Tags; !reflect.DeepEqual(got, final) {
		t.Errorf("row tags = %v, want %v", got, final)
	}
	if got := e.Selection.Items()[0].Tags; !reflect.DeepEqual(got, final) {
		t.Errorf("selection tags = %v, want %v", got, final)
	}
}

func TestCompleteEditorSave_FailureKeepsDraft(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("classic, noir")
	e.SubmitEditor()

	e.CompleteEditorSave("a", dto.ItemUpdate{ID: "a"}, errors.New("boom"))
	if _, open := e.Editor.Open(); !open {
		t.Fatal("editor closed on failure")
	}
	if e.Editor.Saving() {
		t.Error("still saving after failure")
	}
	if e.Editor.Err() != "boom" {
		t.Errorf("err = %q, want %q", e.Editor.Err(), "boom")
	}
	if got := e.Editor.Draft(); got != "classic, noir" {
		t.Errorf("draft = %q, want it kept", got)
	}
}

func TestCompleteEditorSave_ItemErrorsBecomeFailure(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("classic, noir")
	e.SubmitEditor()

	e.CompleteEditorSave("a", dto.ItemUpdate{
		ID:     "a",
		Errors: []string{"update failed", "HTTP 403"},
	}, nil)
	if _, open := e.Editor.Open(); !open {
		t.Fatal("editor closed on per-item failure")
	}
	if e.Editor.Err() != "update failed; HTTP 403" {
		t.Errorf("err = %q", e.Editor.Err())
	}
}

func TestCompleteEditorSave_OtherItemStillPatches(t *testing.T) {
	e := editorEngine(t)
	e.OpenEditor("a")
	e.SetDraft("classic, noir")
	e.SubmitEditor()

	// User moved on before the save landed. The cache is still patched,
	// but the new session is untouched.
	e.OpenEditor("b")
	e.CompleteEditorSave("a", dto.ItemUpdate{ID: "a", Tags: []string{"classic", "noir"}}, nil)

	id, open := e.Editor.Open()
	if !open || id != "b" {
		t.Errorf("editor = %q/%v, want b/true", id, open)
	}
	it, _ := e.Item("a")
	if !reflect.DeepEqual(it.Tags, []string{"classic", "noir"}) {
		t.Errorf("cached tags = %v, want patched", it.Tags)
	}
}
