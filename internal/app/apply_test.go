package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/gateway"
)

// matchServer serves /api/items pages over a fixed match total.
func matchServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			http.NotFound(w, r)
			return
		}
		var req dto.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		count := dto.DefaultPageLimit
		if req.Limit != nil && *req.Limit < count {
			count = *req.Limit
		}
		if req.StartIndex+count > total {
			count = total - req.StartIndex
		}
		items := make([]dto.Item, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, dto.Item{ID: fmt.Sprintf("item-%03d", req.StartIndex+i)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.SearchResponse{
			TotalRecordCount: total,
			ReturnedCount:    len(items),
			Items:            items,
		})
	}))
}

func TestCollectMatchIDsPagesThrough(t *testing.T) {
	ts := matchServer(t, 150)
	defer ts.Close()

	gw = gateway.New(ts.URL, dto.Auth{})

	ids, err := collectMatchIDs(dto.SearchRequest{UserID: "u", LibraryID: "l"})
	if err != nil {
		t.Fatalf("collectMatchIDs failed: %v", err)
	}
	if len(ids) != 150 {
		t.Fatalf("got %d ids, want 150", len(ids))
	}
	if ids[0] != "item-000" || ids[149] != "item-149" {
		t.Errorf("ids out of order: first %s, last %s", ids[0], ids[len(ids)-1])
	}
}

func TestCollectMatchIDsNoMatches(t *testing.T) {
	ts := matchServer(t, 0)
	defer ts.Close()

	gw = gateway.New(ts.URL, dto.Auth{})

	ids, err := collectMatchIDs(dto.SearchRequest{UserID: "u", LibraryID: "l"})
	if err != nil {
		t.Fatalf("collectMatchIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d ids, want none", len(ids))
	}
}
