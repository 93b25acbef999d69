package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func newTestServer(upstream string) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Options{Base: upstream, APIKey: "test-key"}, logger)
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// jsonHandler serves a fixed JSON payload.
func jsonHandler(payload any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, w, &body)
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	decodeJSON(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestMissingBaseRejected(t *testing.T) {
	s := newTestServer("")
	for _, path := range []string{"/api/users", "/api/libraries", "/api/tags", "/api/items", "/api/export", "/api/apply"} {
		w := postJSON(t, s, path, map[string]any{"userId": "u1", "libraryId": "lib1"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, w.Code)
			continue
		}
		if msg := errorMessage(t, w); msg != "Jellyfin base URL is required" {
			t.Errorf("%s error = %q", path, msg)
		}
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	s := newTestServer("http://example.invalid")
	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := errorMessage(t, w); msg != "invalid JSON body" {
		t.Errorf("error = %q", msg)
	}
}

func TestRequestAuthOverridesDefaults(t *testing.T) {
	var gotToken string
	mux := http.NewServeMux()
	mux.HandleFunc("/Users", func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Emby-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer("http://unused.invalid")
	w := postJSON(t, s, "/api/users", map[string]any{
		"base":   upstream.URL + "/",
		"apiKey": "override-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotToken != "override-key" {
		t.Errorf("upstream token = %q, want override-key", gotToken)
	}
}

func TestUsersPassthroughKeepsUnknownFields(t *testing.T) {
	users := []map[string]any{
		{"Id": "u1", "Name": "Alice", "Policy": map[string]any{"IsAdministrator": true}},
		{"Id": "u2", "Name": "Bob", "LastLoginDate": "2024-03-01T00:00:00Z"},
	}
	mux := http.NewServeMux()
	mux.Handle("/Users", jsonHandler(users))
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/users", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []map[string]any
	decodeJSON(t, w, &got)
	if !reflect.DeepEqual(got, users) {
		t.Errorf("users = %v, want %v", got, users)
	}
}

func TestLibrariesPassthrough(t *testing.T) {
	libraries := []map[string]any{
		{"ItemId": "lib1", "Name": "Movies", "CollectionType": "movies", "Locations": []any{"/media/movies"}},
	}
	mux := http.NewServeMux()
	mux.Handle("/Library/VirtualFolders", jsonHandler(libraries))
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/libraries", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []map[string]any
	decodeJSON(t, w, &got)
	if !reflect.DeepEqual(got, libraries) {
		t.Errorf("libraries = %v, want %v", got, libraries)
	}
}

func TestUsersUpstreamErrorMapsToBadGateway(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Users", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	w := postJSON(t, s, "/api/users", map[string]any{})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if msg := errorMessage(t, w); msg == "" {
		t.Error("expected an error message")
	}
}

func TestNormalizeItemTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{name: "empty", raw: nil, want: nil},
		{name: "casing corrected", raw: []string{"movie", "SERIES"}, want: []string{"Movie", "Series"}},
		{name: "comma entries split", raw: []string{"Movie,Series", "boxset"}, want: []string{"Movie", "Series", "BoxSet"}},
		{name: "unknown passes through", raw: []string{"Widget"}, want: []string{"Widget"}},
		{name: "duplicates collapse", raw: []string{"Movie", "movie", " MOVIE "}, want: []string{"Movie"}},
		{name: "blanks dropped", raw: []string{" ", "", "Movie"}, want: []string{"Movie"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeItemTypes(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeItemTypes(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
