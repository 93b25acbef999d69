package engine_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/engine"
)

func applyEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New("u1", "lib1")
	completeSearch(t, e, e.BeginSearch(0, false), 2,
		item("a", "Alien", "horror"), item("b", "Blade", "noir"))
	return e
}

// --- BeginApply guards ---

func TestBeginApply_RequiresSelection(t *testing.T) {
	e := applyEngine(t)
	e.SetAddList("classic")
	if _, err := e.BeginApply(); !errors.Is(err, engine.ErrNothingSelected) {
		t.Errorf("err = %v, want ErrNothingSelected", err)
	}
}

func TestBeginApply_RequiresStagedChanges(t *testing.T) {
	e := applyEngine(t)
	e.SetSelected("a", true)
	if _, err := e.BeginApply(); !errors.Is(err, engine.ErrNothingStaged) {
		t.Errorf("err = %v, want ErrNothingStaged", err)
	}
}

func TestBeginApply_BuildsOneChangePerItem(t *testing.T) {
	e := applyEngine(t)
	e.SetSelected("a", true)
	e.SetSelected("b", true)
	e.SetAddList("classic, essential")
	e.SetRemoveList("noir")

	req, err := e.BeginApply()
	if err != nil {
		t.Fatalf("BeginApply: %v", err)
	}
	if req.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", req.UserID)
	}
	if len(req.Changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(req.Changes))
	}
	for i, ch := range req.Changes {
		if !reflect.DeepEqual(ch.Add, []string{"classic", "essential"}) {
			t.Errorf("changes[%d].Add = %v", i, ch.Add)
		}
		if !reflect.DeepEqual(ch.Remove, []string{"noir"}) {
			t.Errorf("changes[%d].Remove = %v", i, ch.Remove)
		}
	}
	if !e.Applying() {
		t.Error("not applying after BeginApply")
	}
	if _, err := e.BeginApply(); !errors.Is(err, engine.ErrApplyInFlight) {
		t.Errorf("second BeginApply err = %v, want ErrApplyInFlight", err)
	}
}

// --- CompleteApply ---

func TestCompleteApply_TransportError(t *testing.T) {
	e := applyEngine(t)
	e.SetSelected("a", true)
	e.SetAddList("classic")
	if _, err := e.BeginApply(); err != nil {
		t.Fatalf("BeginApply: %v", err)
	}

	out := e.CompleteApply(nil, errors.New("connection refused"))
	if out.Err == nil {
		t.Fatal("outcome has no error")
	}
	if e.Applying() {
		t.Error("still applying after failure")
	}
	if !e.Tags.Dirty() {
		t.Error("staged changes dropped on transport failure")
	}
	if got := out.Summary(); got != "apply failed: connection refused" {
		t.Errorf("Summary = %q", got)
	}
}

func TestCompleteApply_PartitionsAndPatches(t *testing.T) {
	e := applyEngine(t)
	e.SetSelected("a", true)
	e.SetSelected("b", true)
	e.SetAddList("classic")
	if _, err := e.BeginApply(); err != nil {
		t.Fatalf("BeginApply: %v", err)
	}

	resp := &dto.ApplyResponse{Updated: []dto.ItemUpdate{
		{ID: "a", Added: []string{"classic"}, Tags: []string{"classic", "horror"}},
		{ID: "b", Errors: []string{"HTTP 403 for url: x - Forbidden"}},
	}}
	out := e.CompleteApply(resp, nil)

	if len(out.Succeeded) != 1 || len(out.Failed) != 1 {
		t.Fatalf("partition = %d/%d, want 1/1", len(out.Succeeded), len(out.Failed))
	}
	it, _ := e.Item("a")
	if !reflect.DeepEqual(it.Tags, []string{"classic", "horror"}) {
		t.Errorf("tags = %v, want server's final list", it.Tags)
	}
	// Partial failure keeps the staged delta so the apply can be retried.
	if !e.Tags.Dirty() {
		t.Error("staged changes dropped despite a failure")
	}
	if e.Applying() {
		t.Error("apply control still disabled")
	}
	if got := out.Summary(); got != "1 item updated, 1 failed" {
		t.Errorf("Summary = %q", got)
	}
}

func TestCompleteApply_FullSuccessClearsStaged(t *testing.T) {
	e := applyEngine(t)
	e.SetSelected("a", true)
	e.SetSelected("b", true)
	e.SetAddList("classic")
	if _, err := e.BeginApply(); err != nil {
		t.Fatalf("BeginApply: %v", err)
	}

	resp := &dto.ApplyResponse{Updated: []dto.ItemUpdate{
		{ID: "a", Added: []string{"classic"}, Tags: []string{"classic", "horror"}},
		{ID: "b", Added: []string{"classic"}, Tags: []string{"classic", "noir"}},
	}}
	out := e.CompleteApply(resp, nil)
	if e.Tags.Dirty() {
		t.Error("staged changes kept after clean apply")
	}
	if got := out.Summary(); got != "2 items updated" {
		t.Errorf("Summary = %q", got)
	}
}

// --- Outcome rendering ---

func TestDescribe_Outcomes(t *testing.T) {
	e := applyEngine(t)
	cases := []struct {
		update dto.ItemUpdate
		want   string
	}{
		{dto.ItemUpdate{ID: "a", Added: []string{"classic"}}, "Alien: +classic"},
		{dto.ItemUpdate{ID: "a", Added: []string{"x", "y"}, Removed: []string{"z"}}, "Alien: +x +y -z"},
		{dto.ItemUpdate{ID: "a"}, "Alien: no changes"},
		{dto.ItemUpdate{ID: "a", Errors: []string{"boom", "bang"}}, "Alien: boom; bang"},
		{dto.ItemUpdate{ID: "ghost", Added: []string{"x"}}, "ghost: +x"},
	}
	for _, tc := range cases {
		if got := e.Describe(tc.update); got != tc.want {
			t.Errorf("Describe(%v) = %q, want %q", tc.update.ID, got, tc.want)
		}
	}
}

func TestDisplayName_FallsBackToID(t *testing.T) {
	e := applyEngine(t)
	if got := e.DisplayName("a"); got != "Alien" {
		t.Errorf("DisplayName = %q, want Alien", got)
	}
	if got := e.DisplayName("ghost"); got != "ghost" {
		t.Errorf("DisplayName = %q, want ghost", got)
	}
}

// --- Export ---

func TestExportRequest_CarriesFiltersWithoutPaging(t *testing.T) {
	e := applyEngine(t)
	e.Query.Filters = engine.Filters{
		TitleQuery:         " alien ",
		IncludeTags:        "horror",
		Types:              []string{"Movie"},
		ExcludeCollections: true,
		SortOrder:          "desc",
	}

	req := e.ExportRequest()
	if req.TitleQuery != "alien" {
		t.Errorf("TitleQuery = %q, want trimmed", req.TitleQuery)
	}
	if req.IncludeTags != "horror" || !req.ExcludeCollections {
		t.Error("filters not carried")
	}
	if req.SortBy != dto.SortByName || req.SortOrder != dto.SortDescending {
		t.Errorf("sort = %q/%q, want normalized defaults", req.SortBy, req.SortOrder)
	}
	if req.StartIndex != 0 || req.Limit != nil {
		t.Errorf("pagination = %d/%v, want unset", req.StartIndex, req.Limit)
	}
	if req.UserID != "u1" || req.LibraryID != "lib1" {
		t.Errorf("scope = %q/%q", req.UserID, req.LibraryID)
	}
}
