package dto_test

import (
	"testing"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

func ids(items []dto.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNormalizeSort(t *testing.T) {
	tests := []struct {
		by, order         string
		wantBy, wantOrder string
	}{
		{"", "", "SortName", "Ascending"},
		{"SortName", "Ascending", "SortName", "Ascending"},
		{"PremiereDate", "desc", "PremiereDate", "Descending"},
		{"PremiereDate", "DESCENDING", "PremiereDate", "Descending"},
		{"Score", "asc", "SortName", "Ascending"},
		{" PremiereDate ", " Desc ", "PremiereDate", "Descending"},
		{"SortName", "sideways", "SortName", "Ascending"},
	}
	for _, tt := range tests {
		by, order := dto.NormalizeSort(tt.by, tt.order)
		if by != tt.wantBy || order != tt.wantOrder {
			t.Errorf("NormalizeSort(%q, %q) = (%q, %q), want (%q, %q)",
				tt.by, tt.order, by, order, tt.wantBy, tt.wantOrder)
		}
	}
}

func TestSortItemsByNameUsesSortNameThenName(t *testing.T) {
	items := []dto.Item{
		{ID: "1", Name: "The Zebra", SortName: "Zebra"},
		{ID: "2", Name: "alpha"},
		{ID: "3", Name: "Beta", SortName: "beta"},
	}
	dto.SortItems(items, "SortName", "Ascending")
	if got := ids(items); !equalIDs(got, []string{"2", "3", "1"}) {
		t.Errorf("ascending order = %v", got)
	}
	dto.SortItems(items, "SortName", "Descending")
	if got := ids(items); !equalIDs(got, []string{"1", "3", "2"}) {
		t.Errorf("descending order = %v", got)
	}
}

func TestSortItemsNameTiebreakByID(t *testing.T) {
	items := []dto.Item{
		{ID: "b", Name: "Same"},
		{ID: "a", Name: "Same"},
	}
	dto.SortItems(items, "SortName", "Ascending")
	if got := ids(items); !equalIDs(got, []string{"a", "b"}) {
		t.Errorf("order = %v", got)
	}
}

func TestSortItemsByDateDescending(t *testing.T) {
	items := []dto.Item{
		{ID: "old", Name: "Old", PremiereDate: "1999-03-31T00:00:00Z"},
		{ID: "new", Name: "New", PremiereDate: "2020-01-05T00:00:00.0000000Z"},
		{ID: "year-only", Name: "Year", ProductionYear: 2010},
		{ID: "undated", Name: "Undated"},
	}
	dto.SortItems(items, "PremiereDate", "Descending")
	if got := ids(items); !equalIDs(got, []string{"new", "year-only", "old", "undated"}) {
		t.Errorf("descending order = %v", got)
	}
}

func TestSortItemsByDateUndatedLastBothDirections(t *testing.T) {
	items := []dto.Item{
		{ID: "undated", Name: "A"},
		{ID: "dated", Name: "B", PremiereDate: "2001-01-01"},
	}
	dto.SortItems(items, "PremiereDate", "Ascending")
	if got := ids(items); !equalIDs(got, []string{"dated", "undated"}) {
		t.Errorf("ascending order = %v", got)
	}
	dto.SortItems(items, "PremiereDate", "Descending")
	if got := ids(items); !equalIDs(got, []string{"dated", "undated"}) {
		t.Errorf("descending order = %v", got)
	}
}

func TestSortItemsMalformedDateSortsAsUndated(t *testing.T) {
	items := []dto.Item{
		{ID: "bad", Name: "A", PremiereDate: "not-a-date"},
		{ID: "good", Name: "B", PremiereDate: "2001-01-01"},
	}
	dto.SortItems(items, "PremiereDate", "Ascending")
	if got := ids(items); !equalIDs(got, []string{"good", "bad"}) {
		t.Errorf("order = %v", got)
	}
}

func TestSortItemsEqualDatesFallBackToName(t *testing.T) {
	items := []dto.Item{
		{ID: "z", Name: "Zeta", PremiereDate: "2001-01-01"},
		{ID: "a", Name: "Alpha", PremiereDate: "2001-01-01T00:00:00Z"},
	}
	dto.SortItems(items, "PremiereDate", "Descending")
	if got := ids(items); !equalIDs(got, []string{"a", "z"}) {
		t.Errorf("order = %v", got)
	}
}

func TestTotalPrefersMatchCount(t *testing.T) {
	match := 7
	resp := dto.SearchResponse{TotalRecordCount: 100, TotalMatchCount: &match}
	if got := resp.Total(); got != 7 {
		t.Errorf("Total = %d, want 7", got)
	}
	resp.TotalMatchCount = nil
	if got := resp.Total(); got != 100 {
		t.Errorf("Total = %d, want 100", got)
	}
}
