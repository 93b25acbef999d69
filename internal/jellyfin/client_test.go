package jellyfin_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/jellyfin"
)

func TestItemsSendsTokenAndParams(t *testing.T) {
	var gotToken string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Emby-Token")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Items":[{"Id":"a","Name":"Alpha"}],"TotalRecordCount":1}`))
	}))
	defer srv.Close()

	c := jellyfin.New(srv.URL+"/", "secret")
	page, err := c.Items("u1", jellyfin.ItemsOptions{
		ParentID:     "lib",
		IncludeTypes: []string{"Movie", "Episode"},
		Fields:       []string{"Name", "Tags"},
		SearchTerm:   "  alpha  ",
		SortBy:       "SortName",
		SortOrder:    "Ascending",
		StartIndex:   20,
		Limit:        100,
	})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if gotToken != "secret" {
		t.Errorf("token = %q, want %q", gotToken, "secret")
	}
	want := map[string]string{
		"ParentId":         "lib",
		"Recursive":        "true",
		"Fields":           "Name,Tags",
		"StartIndex":       "20",
		"Limit":            "100",
		"IncludeItemTypes": "Movie,Episode",
		"SearchTerm":       "alpha",
		"SortBy":           "SortName",
		"SortOrder":        "Ascending",
	}
	if !reflect.DeepEqual(gotQuery, want) {
		t.Errorf("query = %v, want %v", gotQuery, want)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestUpdateItemFallsBackToPost(t *testing.T) {
	var methods []string
	var lastBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := jellyfin.New(srv.URL, "k")
	err := c.UpdateItem("item1", map[string]any{"Id": "item1", "Tags": []string{"New"}})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if want := []string{"PUT", "POST"}; !reflect.DeepEqual(methods, want) {
		t.Errorf("methods = %v, want %v", methods, want)
	}
	if lastBody["Id"] != "item1" {
		t.Errorf("fallback POST body = %v", lastBody)
	}
}

func TestUpdateItemDoesNotFallBackOnOtherErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Message":"bad payload"}`))
	}))
	defer srv.Close()

	c := jellyfin.New(srv.URL, "k")
	err := c.UpdateItem("item1", map[string]any{"Id": "item1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	var se *jellyfin.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 StatusError", err)
	}
	if se.Detail != "bad payload" {
		t.Errorf("detail = %q", se.Detail)
	}
}

func TestAllTagsMergesSections(t *testing.T) {
	it := jellyfin.Item{
		TagItems:      []jellyfin.TagItem{{Name: "Action"}, {Name: " Drama "}},
		Tags:          []string{"action", "Comedy"},
		InheritedTags: []string{"Parent", "COMEDY"},
	}
	got := it.AllTags()
	want := []string{"Action", "Drama", "Comedy", "Parent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
}

func TestUpdatePayloadDropsEmptyFields(t *testing.T) {
	it := jellyfin.Item{
		ID:          "id1",
		Name:        "Example",
		Overview:    "",
		Genres:      []string{},
		ProviderIDs: map[string]string{"Imdb": "tt1"},
		Taglines:    []string{"first"},
	}
	p := it.UpdatePayload()
	if p["Id"] != "id1" || p["Name"] != "Example" {
		t.Errorf("payload = %v", p)
	}
	for _, absent := range []string{"Overview", "Genres", "Tags", "SortName", "People"} {
		if _, ok := p[absent]; ok {
			t.Errorf("payload should omit %s", absent)
		}
	}
	if _, ok := p["ProviderIds"]; !ok {
		t.Error("payload should keep ProviderIds")
	}
}

func TestTagEntryUses(t *testing.T) {
	n := func(v int) *int { return &v }
	tests := []struct {
		name  string
		entry jellyfin.TagEntry
		want  int
	}{
		{"item count", jellyfin.TagEntry{Name: "a", ItemCount: n(3)}, 3},
		{"count fallback", jellyfin.TagEntry{Name: "a", Count: n(2)}, 2},
		{"item count wins", jellyfin.TagEntry{Name: "a", ItemCount: n(3), Count: n(9)}, 3},
		{"missing counts as one", jellyfin.TagEntry{Name: "a"}, 1},
		{"negative clamps", jellyfin.TagEntry{Name: "a", ItemCount: n(-4)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Uses(); got != tt.want {
				t.Errorf("Uses() = %d, want %d", got, tt.want)
			}
		})
	}
}
