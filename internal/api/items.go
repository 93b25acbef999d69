package api

import (
	"encoding/csv"
	"net/http"
	"sort"
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/jellyfin"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

// exportFetchLimit is the upstream page size for export walks, which
// always cover the whole library.
const exportFetchLimit = 500

// searchParams is the parsed, normalized filter state shared by the
// items and export handlers.
type searchParams struct {
	userID        string
	libraryID     string
	includeTypes  []string
	excludedTypes []string
	includeKeys   map[string]bool
	excludeKeys   map[string]bool
	title         string
	titleLower    string
	sortBy        string
	sortOrder     string
}

// parseSearch decodes and validates a search-shaped request. Returns
// false when a response has already been written.
func (s *Server) parseSearch(w http.ResponseWriter, r *http.Request) (*jellyfin.Client, dto.SearchRequest, searchParams, bool) {
	var req dto.SearchRequest
	if !s.readJSON(w, r, &req) {
		return nil, req, searchParams{}, false
	}
	c, ok := s.client(w, req.Auth)
	if !ok {
		return nil, req, searchParams{}, false
	}

	userID := strings.TrimSpace(req.UserID)
	libraryID := strings.TrimSpace(req.LibraryID)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return nil, req, searchParams{}, false
	}
	if libraryID == "" {
		s.writeError(w, http.StatusBadRequest, "libraryId is required")
		return nil, req, searchParams{}, false
	}

	title := strings.TrimSpace(req.TitleQuery)
	sortBy, sortOrder := dto.NormalizeSort(req.SortBy, req.SortOrder)

	var excludedTypes []string
	if req.ExcludeCollections {
		excludedTypes = collectionItemTypes
	}

	p := searchParams{
		userID:        userID,
		libraryID:     libraryID,
		includeTypes:  normalizeItemTypes(req.Types),
		excludedTypes: excludedTypes,
		includeKeys:   foldSet(tagutil.Normalize(req.IncludeTags)),
		excludeKeys:   foldSet(tagutil.Normalize(req.ExcludeTags)),
		title:         title,
		titleLower:    strings.ToLower(title),
		sortBy:        sortBy,
		sortOrder:     sortOrder,
	}
	return c, req, p, true
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	c, req, p, ok := s.parseSearch(w, r)
	if !ok {
		return
	}
	start := sanitizeStartIndex(req.StartIndex)
	limit := sanitizeLimit(req.Limit)
	s.logger.Info("Item search",
		"library", p.libraryID, "user", p.userID,
		"include", len(p.includeKeys), "exclude", len(p.excludeKeys),
		"start", start, "limit", limit, "sort", p.sortBy+"/"+p.sortOrder)

	sk := s.searchKeyFor(c, p)
	qk := queryKey{searchKey: sk, start: start, limit: limit}
	if resp, ok := s.items.response(qk); ok {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	if pf, ok := s.items.matches(sk); ok {
		if (pf.complete && !pf.truncated) || start+limit <= len(pf.matches) {
			resp := pageResponse(pf.matches, pf.total, start, limit, p.sortBy, p.sortOrder)
			s.items.storeResponse(qk, resp)
			s.writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	fetchLimit := limit
	if fetchLimit <= 0 {
		fetchLimit = dto.DefaultPageLimit
	}
	matched, processed, err := collectMatches(c, p, fetchLimit)
	if err != nil {
		s.logger.Error("Item search failed", "library", p.libraryID, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	dto.SortItems(matched, p.sortBy, p.sortOrder)
	total := len(matched)
	s.items.storeMatches(sk, matched, total, true)

	resp := pageResponse(matched, total, start, limit, p.sortBy, p.sortOrder)
	s.items.storeResponse(qk, resp)
	s.logger.Info("Item search complete",
		"processed", processed, "matched", total, "returned", resp.ReturnedCount)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, _, p, ok := s.parseSearch(w, r)
	if !ok {
		return
	}
	s.logger.Info("Export", "library", p.libraryID, "user", p.userID)

	matched, processed, err := collectMatches(c, p, exportFetchLimit)
	if err != nil {
		s.logger.Error("Export failed", "library", p.libraryID, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	dto.SortItems(matched, p.sortBy, p.sortOrder)
	s.logger.Info("Export complete", "processed", processed, "matched", len(matched))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tags_export.csv"`)
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	_ = cw.Write([]string{"id", "type", "name", "path", "tags"})
	for _, it := range matched {
		_ = cw.Write([]string{it.ID, it.Type, it.Name, it.Path, strings.Join(tagutil.Sorted(it.Tags), ";")})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("Failed to write CSV", "error", err)
	}
}

// searchKeyFor derives the cache key for a parsed query, binding it to
// the current tag catalog version.
func (s *Server) searchKeyFor(c *jellyfin.Client, p searchParams) searchKey {
	return searchKey{
		base:          c.Base(),
		userID:        p.userID,
		libraryID:     p.libraryID,
		types:         strings.Join(p.includeTypes, ","),
		includeKeys:   sortedSetKey(p.includeKeys),
		excludeKeys:   sortedSetKey(p.excludeKeys),
		excludedTypes: strings.Join(p.excludedTypes, ","),
		titleQuery:    p.title,
		sortBy:        p.sortBy,
		sortOrder:     p.sortOrder,
		version:       s.tags.version(newTagKey(c.Base(), p.libraryID, p.userID, p.includeTypes)),
	}
}

// collectMatches walks every upstream page for a query, filtering as it
// goes. Some servers clamp Limit; when a page comes back short while
// more data remains, the fetch limit shrinks to the server's effective
// page size instead of rereading overlapping windows.
func collectMatches(c *jellyfin.Client, p searchParams, fetchLimit int) ([]dto.Item, int, error) {
	var matched []dto.Item
	processed := 0
	start := 0

	for {
		page, err := c.Items(p.userID, jellyfin.ItemsOptions{
			ParentID:     p.libraryID,
			IncludeTypes: p.includeTypes,
			ExcludeTypes: p.excludedTypes,
			Fields:       jellyfin.SearchFields,
			SearchTerm:   p.title,
			SortBy:       p.sortBy,
			SortOrder:    p.sortOrder,
			StartIndex:   start,
			Limit:        fetchLimit,
		})
		if err != nil {
			return nil, processed, err
		}
		if len(page.Items) == 0 {
			break
		}

		items := page.Items
		if len(p.excludedTypes) > 0 {
			kept := make([]jellyfin.Item, 0, len(items))
			for _, it := range items {
				if !containsType(p.excludedTypes, it.Type) {
					kept = append(kept, it)
				}
			}
			items = kept
		}
		processed += len(items)
		for _, it := range items {
			if matchesFilters(it, p) {
				matched = append(matched, serializeItem(it))
			}
		}

		pageSize := len(page.Items)
		start += pageSize
		if page.TotalRecordCount > 0 {
			if start >= page.TotalRecordCount {
				break
			}
			if pageSize < fetchLimit {
				fetchLimit = pageSize
			}
			continue
		}
		if pageSize < fetchLimit {
			break
		}
	}
	return matched, processed, nil
}

// matchesFilters applies the tag and title predicates: include tags
// must all be present, exclude tags must all be absent, and the title
// must appear in Name or SortName when given.
func matchesFilters(it jellyfin.Item, p searchParams) bool {
	tags := make(map[string]bool)
	for _, t := range it.AllTags() {
		tags[tagutil.Fold(t)] = true
	}
	for key := range p.includeKeys {
		if !tags[key] {
			return false
		}
	}
	if len(p.excludeKeys) > 0 {
		for key := range tags {
			if p.excludeKeys[key] {
				return false
			}
		}
	}
	if p.titleLower != "" {
		found := false
		for _, candidate := range []string{it.Name, it.SortName} {
			if strings.TrimSpace(candidate) == "" {
				continue
			}
			if strings.Contains(strings.ToLower(candidate), p.titleLower) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// serializeItem shapes an upstream item for responses, with the merged
// tag list and SortName falling back to Name.
func serializeItem(it jellyfin.Item) dto.Item {
	sortName := it.SortName
	if sortName == "" {
		sortName = it.Name
	}
	return dto.Item{
		ID:             it.ID,
		Type:           it.Type,
		Name:           it.Name,
		SortName:       sortName,
		Path:           it.Path,
		Tags:           it.AllTags(),
		PremiereDate:   it.PremiereDate,
		ProductionYear: it.ProductionYear,
	}
}

// pageResponse slices one page out of the full sorted match set. A zero
// limit returns counts only.
func pageResponse(matches []dto.Item, total, start, limit int, sortBy, sortOrder string) dto.SearchResponse {
	page := []dto.Item{}
	if limit > 0 && start < len(matches) {
		end := start + limit
		if end > len(matches) {
			end = len(matches)
		}
		page = matches[start:end]
	}
	matchTotal := total
	return dto.SearchResponse{
		TotalRecordCount: total,
		TotalMatchCount:  &matchTotal,
		ReturnedCount:    len(page),
		Items:            page,
		SortBy:           sortBy,
		SortOrder:        sortOrder,
	}
}

func sanitizeStartIndex(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func sanitizeLimit(v *int) int {
	if v == nil {
		return dto.DefaultPageLimit
	}
	switch {
	case *v > dto.MaxPageLimit:
		return dto.MaxPageLimit
	case *v < 0:
		return 0
	}
	return *v
}

func foldSet(tags []string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, t := range tags {
		out[tagutil.Fold(t)] = true
	}
	return out
}

// sortedSetKey renders a fold set as a stable cache-key fragment.
func sortedSetKey(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func containsType(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
