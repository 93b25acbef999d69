package api

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/tagctl/internal/jellyfin"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

const (
	// tagPageLimit is the page size used against the tag endpoints.
	tagPageLimit = 200
	// maxTagPages caps tag pagination so a misbehaving server cannot
	// hold a refresh goroutine forever.
	maxTagPages = 100
	// aggregateFetchLimit is the item page size for the aggregation
	// fallback.
	aggregateFetchLimit = 500
	// tagCacheTTL is how long a completed catalog is served before a
	// background refresh is kicked again.
	tagCacheTTL = 5 * time.Minute
)

// tagKey scopes one cached catalog. Types are normalized before the key
// is built, so "movie,Series" and ["Movie","Series"] share an entry.
type tagKey struct {
	base      string
	libraryID string
	userID    string
	types     string
}

func newTagKey(base, libraryID, userID string, includeTypes []string) tagKey {
	return tagKey{
		base:      base,
		libraryID: libraryID,
		userID:    userID,
		types:     strings.Join(includeTypes, ","),
	}
}

type tagEntry struct {
	tags      []string
	source    string
	updatedAt time.Time
	loading   bool
	err       string
}

type tagProgress struct {
	processed int
	pages     int
}

// tagCache holds one catalog per (server, library, user, types) key and
// runs at most one refresh goroutine per key.
type tagCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[tagKey]*tagEntry
	progress map[tagKey]tagProgress
}

func newTagCache() *tagCache {
	return &tagCache{
		ttl:      tagCacheTTL,
		entries:  make(map[tagKey]*tagEntry),
		progress: make(map[tagKey]tagProgress),
	}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// snapshot returns a copy of the entry for a key, if any.
func (tc *tagCache) snapshot(key tagKey) (tagEntry, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	e := tc.entries[key]
	if e == nil {
		return tagEntry{}, false
	}
	return *e, true
}

func (tc *tagCache) stale(e tagEntry) bool {
	return e.updatedAt.IsZero() || time.Since(e.updatedAt) >= tc.ttl
}

func (tc *tagCache) refreshing(key tagKey) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	e := tc.entries[key]
	return e != nil && e.loading
}

// version ties the item caches to the tag catalog: queries cached under
// an older catalog stop matching the moment a refresh lands.
func (tc *tagCache) version(key tagKey) float64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if e := tc.entries[key]; e != nil {
		return unixSeconds(e.updatedAt)
	}
	return 0
}

// markStale ages out every catalog for one server. Applied tag changes
// make the cached catalogs and item queries unreliable; the next /tags
// call refreshes, and item cache keys roll over with the version.
func (tc *tagCache) markStale(base string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for key, e := range tc.entries {
		if key.base == base {
			e.updatedAt = time.Time{}
		}
	}
}

func (tc *tagCache) progressFor(key tagKey) tagProgress {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.progress[key]
}

func (tc *tagCache) addProgress(key tagKey, processed int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	p := tc.progress[key]
	p.processed += processed
	p.pages++
	tc.progress[key] = p
}

// ensureRefresh starts a background refresh unless one is already
// running for the key.
func (tc *tagCache) ensureRefresh(c *jellyfin.Client, key tagKey, userID, libraryID string, includeTypes []string, logger *slog.Logger) {
	tc.mu.Lock()
	e := tc.entries[key]
	if e != nil && e.loading {
		tc.mu.Unlock()
		return
	}
	if e == nil {
		e = &tagEntry{}
		tc.entries[key] = e
	}
	e.loading = true
	e.err = ""
	tc.progress[key] = tagProgress{}
	tc.mu.Unlock()

	go tc.refresh(c, key, userID, libraryID, includeTypes, logger)
}

func (tc *tagCache) refresh(c *jellyfin.Client, key tagKey, userID, libraryID string, includeTypes []string, logger *slog.Logger) {
	tags, source, err := tc.gather(c, key, userID, libraryID, includeTypes, logger)

	tc.mu.Lock()
	defer tc.mu.Unlock()
	e := tc.entries[key]
	if e == nil {
		e = &tagEntry{}
		tc.entries[key] = e
	}
	e.loading = false
	if err != nil {
		logger.Error("Tag refresh failed", "library", libraryID, "error", err)
		e.err = err.Error()
		return
	}
	e.tags = tags
	e.source = source
	e.err = ""
	e.updatedAt = time.Now()
	logger.Info("Tag refresh complete", "library", libraryID, "tags", len(tags), "source", source)
}

// gather walks the fallback chain: the user-scoped tag endpoint, the
// global tag endpoint, then aggregation over the items themselves. A
// step that errors or yields nothing falls through to the next.
func (tc *tagCache) gather(c *jellyfin.Client, key tagKey, userID, libraryID string, includeTypes []string, logger *slog.Logger) ([]string, string, error) {
	if userID != "" {
		tags, err := tc.collectEndpointTags(c, key, userID, libraryID, includeTypes)
		if err != nil {
			logger.Warn("User tag endpoint unavailable", "error", err)
		} else if len(tags) > 0 {
			return tags, "users-items-tags", nil
		}
	}

	tags, err := tc.collectEndpointTags(c, key, "", libraryID, includeTypes)
	if err != nil {
		logger.Warn("Global tag endpoint unavailable", "error", err)
	} else if len(tags) > 0 {
		return tags, "items-tags", nil
	}

	tags, err = tc.aggregateFromItems(c, key, userID, libraryID, includeTypes)
	if err != nil {
		return nil, "", err
	}
	return tags, "aggregated", nil
}

// collectEndpointTags pages through a tag endpoint, merging per-tag use
// counts. Some servers ignore StartIndex and serve the same page
// forever; an identical consecutive page aborts the walk.
func (tc *tagCache) collectEndpointTags(c *jellyfin.Client, key tagKey, userID, libraryID string, includeTypes []string) ([]string, error) {
	counts := make(map[string]int)
	canonical := make(map[string]string)
	start := 0
	pages := 0
	prevSignature := ""

	for {
		page, err := c.Tags(userID, jellyfin.TagsOptions{
			ParentID:     libraryID,
			IncludeTypes: includeTypes,
			StartIndex:   start,
			Limit:        tagPageLimit,
		})
		if err != nil {
			return nil, err
		}

		sig := tagPageSignature(page.Items)
		if pages > 0 && sig == prevSignature {
			return nil, errors.New("tag pagination appears capped by server limit")
		}
		prevSignature = sig

		if len(page.Items) == 0 {
			break
		}

		for _, entry := range page.Items {
			addTagCount(counts, canonical, entry.Name, entry.Uses())
		}

		pageSize := len(page.Items)
		start += pageSize
		pages++
		tc.addProgress(key, pageSize)

		if pages >= maxTagPages {
			return nil, errors.New("exceeded maximum tag pagination requests")
		}
		if pageSize < tagPageLimit {
			break
		}
		if total, ok := page.Total(); ok && start >= total {
			break
		}
	}

	return sortedTagNames(counts, canonical), nil
}

// aggregateFromItems derives the catalog by walking the items and
// counting merged tag lists. Same adaptive page loop as item search.
func (tc *tagCache) aggregateFromItems(c *jellyfin.Client, key tagKey, userID, libraryID string, includeTypes []string) ([]string, error) {
	counts := make(map[string]int)
	canonical := make(map[string]string)
	start := 0
	fetchLimit := aggregateFetchLimit

	for {
		page, err := c.Items(userID, jellyfin.ItemsOptions{
			ParentID:     libraryID,
			IncludeTypes: includeTypes,
			Fields:       jellyfin.SearchFields,
			StartIndex:   start,
			Limit:        fetchLimit,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		batch := len(page.Items)
		for _, it := range page.Items {
			for _, name := range it.AllTags() {
				addTagCount(counts, canonical, name, 1)
			}
		}
		start += batch
		tc.addProgress(key, batch)

		if page.TotalRecordCount > 0 && start < page.TotalRecordCount {
			if batch < fetchLimit {
				fetchLimit = batch
			}
			continue
		}
		if batch < fetchLimit {
			break
		}
	}

	return sortedTagNames(counts, canonical), nil
}

// addTagCount folds a name into the count map, remembering the first
// casing seen. Zero and negative counts are skipped entirely.
func addTagCount(counts map[string]int, canonical map[string]string, name string, count int) {
	if count <= 0 {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	key := tagutil.Fold(trimmed)
	if _, ok := canonical[key]; !ok {
		canonical[key] = trimmed
	}
	counts[key] += count
}

// sortedTagNames orders the catalog: most used first, ties broken by
// casefolded name, then raw name.
func sortedTagNames(counts map[string]int, canonical map[string]string) []string {
	type rank struct {
		name  string
		count int
	}
	ranked := make([]rank, 0, len(counts))
	for key, count := range counts {
		name := canonical[key]
		if name == "" {
			name = key
		}
		ranked = append(ranked, rank{name: name, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		fi, fj := strings.ToLower(ranked[i].name), strings.ToLower(ranked[j].name)
		if fi != fj {
			return fi < fj
		}
		return ranked[i].name < ranked[j].name
	})
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.name
	}
	return names
}

// tagPageSignature fingerprints one endpoint page for the stuck-page
// guard.
func tagPageSignature(items []jellyfin.TagEntry) string {
	var b strings.Builder
	for _, entry := range items {
		fmt.Fprintf(&b, "%s\x1f%s\x1f%s\x1e", entry.Name, intKey(entry.ItemCount), intKey(entry.Count))
	}
	return b.String()
}

func intKey(v *int) string {
	if v == nil {
		return "-"
	}
	n := *v
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%d", n)
}
