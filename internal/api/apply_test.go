package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// applyUpstream fakes the fetch and update endpoints for one item.
func applyUpstream(item map[string]any, captured *map[string]any) *httptest.Server {
	id := item["Id"].(string)
	mux := http.NewServeMux()
	mux.Handle("/Users/u1/Items/"+id, jsonHandler(item))
	mux.HandleFunc("/Items/"+id, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if captured != nil {
			*captured = payload
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func TestApplyMergesTags(t *testing.T) {
	var captured map[string]any
	upstream := applyUpstream(map[string]any{
		"Id":     "i1",
		"Name":   "Alien",
		"Type":   "Movie",
		"Genres": []string{"Sci-Fi"},
		"Tags":   []string{"Horror", "Classic"},
	}, &captured)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId": "u1",
		"changes": []map[string]any{
			{"id": "i1", "add": []string{"sci-fi", "HORROR"}, "remove": []string{"classic"}},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	if len(resp.Updated) != 1 {
		t.Fatalf("updated = %d entries", len(resp.Updated))
	}
	u := resp.Updated[0]
	if u.Failed() {
		t.Fatalf("errors = %v", u.Errors)
	}
	if !equalStrings(u.Added, []string{"sci-fi", "HORROR"}) || !equalStrings(u.Removed, []string{"classic"}) {
		t.Errorf("added/removed = %v/%v", u.Added, u.Removed)
	}
	if !equalStrings(u.Tags, []string{"HORROR", "sci-fi"}) {
		t.Errorf("final tags = %v, want [HORROR sci-fi]", u.Tags)
	}

	if captured["Id"] != "i1" || captured["Name"] != "Alien" {
		t.Errorf("payload identity = %v/%v", captured["Id"], captured["Name"])
	}
	gotTags, _ := captured["Tags"].([]any)
	if len(gotTags) != 2 || gotTags[0] != "HORROR" || gotTags[1] != "sci-fi" {
		t.Errorf("payload tags = %v", captured["Tags"])
	}
	if genres, _ := captured["Genres"].([]any); len(genres) != 1 || genres[0] != "Sci-Fi" {
		t.Errorf("payload genres = %v, metadata must be echoed", captured["Genres"])
	}
}

func TestApplyReportsMissingItemID(t *testing.T) {
	upstream := applyUpstream(map[string]any{"Id": "i1", "Name": "Alien"}, nil)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId": "u1",
		"changes": []map[string]any{
			{"id": "", "add": []string{"x"}},
			{"id": "i1", "add": []string{"New"}},
		},
	})
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	if len(resp.Updated) != 2 {
		t.Fatalf("updated = %d entries, want 2", len(resp.Updated))
	}
	if !equalStrings(resp.Updated[0].Errors, []string{"Missing item id"}) {
		t.Errorf("first errors = %v", resp.Updated[0].Errors)
	}
	if resp.Updated[1].Failed() || !equalStrings(resp.Updated[1].Tags, []string{"New"}) {
		t.Errorf("second = %+v", resp.Updated[1])
	}
}

func TestApplySkipsEmptyChange(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/Users/u1/Items/i1", func(w http.ResponseWriter, _ *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Id":"i1"}`))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId":  "u1",
		"changes": []map[string]any{{"id": "i1", "add": []string{""}}},
	})
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	u := resp.Updated[0]
	if u.Failed() || len(u.Added) != 0 || len(u.Removed) != 0 {
		t.Errorf("no-op result = %+v", u)
	}
	if fetches != 0 {
		t.Errorf("fetches = %d, want 0", fetches)
	}
}

func TestApplyIsolatesFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Users/u1/Items/bad", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.Handle("/Users/u1/Items/good", jsonHandler(map[string]any{"Id": "good", "Name": "Blade"}))
	mux.HandleFunc("/Items/good", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId": "u1",
		"changes": []map[string]any{
			{"id": "bad", "add": []string{"x"}},
			{"id": "good", "add": []string{"x"}},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite failures", w.Code)
	}
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	if !resp.Updated[0].Failed() {
		t.Error("first item should carry an error")
	}
	if resp.Updated[0].ID != "bad" || len(resp.Updated[0].Tags) != 0 {
		t.Errorf("failed entry = %+v", resp.Updated[0])
	}
	if resp.Updated[1].Failed() || !equalStrings(resp.Updated[1].Tags, []string{"x"}) {
		t.Errorf("second entry = %+v", resp.Updated[1])
	}
}

func TestApplyRequiresUserID(t *testing.T) {
	s := newTestServer("http://example.invalid")
	w := postJSON(t, s, "/api/apply", map[string]any{"changes": []map[string]any{}})
	if w.Code != http.StatusBadRequest || errorMessage(t, w) != "userId is required" {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestApplyInvalidatesItemCaches(t *testing.T) {
	var calls []pageCall
	mux := http.NewServeMux()
	mux.HandleFunc("/Users/u1/Items", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, pageCall{})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Items":            []map[string]any{libItem("i1", "Alien", "Old")},
			"TotalRecordCount": 1,
		})
	})
	mux.Handle("/Users/u1/Items/i1", jsonHandler(map[string]any{"Id": "i1", "Name": "Alien"}))
	mux.HandleFunc("/Items/i1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	postJSON(t, s, "/api/items", searchBody(nil))
	postJSON(t, s, "/api/items", searchBody(nil))
	if len(calls) != 1 {
		t.Fatalf("calls before apply = %d, want 1 (cached)", len(calls))
	}

	postJSON(t, s, "/api/apply", map[string]any{
		"userId":  "u1",
		"changes": []map[string]any{{"id": "i1", "add": []string{"New"}}},
	})
	postJSON(t, s, "/api/items", searchBody(nil))
	if len(calls) != 2 {
		t.Errorf("calls after apply = %d, want 2 (cache dropped)", len(calls))
	}
}

func TestApplyWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "alien.mkv")
	var captured map[string]any
	upstream := applyUpstream(map[string]any{
		"Id":       "i1",
		"Name":     "Alien",
		"Type":     "Movie",
		"Path":     mediaPath,
		"Tags":     []string{"Horror"},
		"Taglines": []string{"In space no one can hear you scream."},
	}, &captured)
	defer upstream.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Options{Base: upstream.URL, APIKey: "k", WriteNFO: true}, logger)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId":  "u1",
		"changes": []map[string]any{{"id": "i1", "add": []string{"Classic"}}},
	})
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	if resp.Updated[0].Failed() {
		t.Fatalf("errors = %v", resp.Updated[0].Errors)
	}

	content, err := os.ReadFile(filepath.Join(dir, "alien.nfo"))
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	doc := string(content)
	for _, want := range []string{
		"<title>Alien</title>",
		"<tag>Classic</tag>",
		"<tag>Horror</tag>",
		"<tagline>In space no one can hear you scream.</tagline>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("sidecar missing %q in %q", want, doc)
		}
	}
}

func TestApplySidecarFailureReportedPerItem(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The sidecar parent is a regular file, so the write must fail.
	upstream := applyUpstream(map[string]any{
		"Id":   "i1",
		"Name": "Alien",
		"Path": filepath.Join(blocker, "nested", "alien.mkv"),
	}, nil)
	defer upstream.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Options{Base: upstream.URL, APIKey: "k", WriteNFO: true}, logger)
	w := postJSON(t, s, "/api/apply", map[string]any{
		"userId":  "u1",
		"changes": []map[string]any{{"id": "i1", "add": []string{"x"}}},
	})
	var resp dto.ApplyResponse
	decodeJSON(t, w, &resp)
	if !resp.Updated[0].Failed() {
		t.Fatal("expected the sidecar failure to surface as an item error")
	}
	if !strings.Contains(resp.Updated[0].Errors[0], "sidecar") {
		t.Errorf("error = %v", resp.Updated[0].Errors)
	}
}
