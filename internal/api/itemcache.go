package api

import (
	"container/list"
	"sync"
	"time"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

const (
	// queryCacheTTL bounds how long one exact page response is reused.
	queryCacheTTL        = 30 * time.Second
	queryCacheMaxEntries = 128

	// The prefetch cache keeps whole filtered match sets so later pages
	// of the same query need no upstream refetch.
	prefetchCacheTTL        = 2 * time.Minute
	prefetchCacheMaxEntries = 16
	// prefetchCacheLimit caps how many matches one entry may hold;
	// larger result sets are stored truncated and only serve the pages
	// that fit.
	prefetchCacheLimit = 5000
)

// searchKey identifies one filtered query independent of pagination.
// version is the tag catalog version at query time, so item caches roll
// over when tags change.
type searchKey struct {
	base          string
	userID        string
	libraryID     string
	types         string
	includeKeys   string
	excludeKeys   string
	excludedTypes string
	titleQuery    string
	sortBy        string
	sortOrder     string
	version       float64
}

// queryKey identifies one exact response page.
type queryKey struct {
	searchKey
	start int
	limit int
}

type queryCacheEntry struct {
	key      queryKey
	resp     dto.SearchResponse
	storedAt time.Time
}

type prefetchCacheEntry struct {
	key       searchKey
	matches   []dto.Item
	total     int
	complete  bool
	truncated bool
	storedAt  time.Time
}

// itemCache pairs the page-response cache with the prefetch cache.
// Both are LRU with TTL expiry checked on access.
type itemCache struct {
	mu sync.Mutex

	queries  map[queryKey]*list.Element
	queryLRU *list.List

	prefetch    map[searchKey]*list.Element
	prefetchLRU *list.List
}

func newItemCache() *itemCache {
	return &itemCache{
		queries:     make(map[queryKey]*list.Element),
		queryLRU:    list.New(),
		prefetch:    make(map[searchKey]*list.Element),
		prefetchLRU: list.New(),
	}
}

// response returns a cached page for an exact query, refreshing its LRU
// position.
func (ic *itemCache) response(key queryKey) (dto.SearchResponse, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	el, ok := ic.queries[key]
	if !ok {
		return dto.SearchResponse{}, false
	}
	entry := el.Value.(*queryCacheEntry)
	if time.Since(entry.storedAt) >= queryCacheTTL {
		ic.queryLRU.Remove(el)
		delete(ic.queries, key)
		return dto.SearchResponse{}, false
	}
	ic.queryLRU.MoveToFront(el)
	return entry.resp, true
}

func (ic *itemCache) storeResponse(key queryKey, resp dto.SearchResponse) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if el, ok := ic.queries[key]; ok {
		entry := el.Value.(*queryCacheEntry)
		entry.resp = resp
		entry.storedAt = time.Now()
		ic.queryLRU.MoveToFront(el)
		return
	}
	el := ic.queryLRU.PushFront(&queryCacheEntry{key: key, resp: resp, storedAt: time.Now()})
	ic.queries[key] = el
	for ic.queryLRU.Len() > queryCacheMaxEntries {
		oldest := ic.queryLRU.Back()
		ic.queryLRU.Remove(oldest)
		delete(ic.queries, oldest.Value.(*queryCacheEntry).key)
	}
}

// matches returns the prefetched match set for a query, if present and
// fresh.
func (ic *itemCache) matches(key searchKey) (prefetchCacheEntry, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	el, ok := ic.prefetch[key]
	if !ok {
		return prefetchCacheEntry{}, false
	}
	entry := el.Value.(*prefetchCacheEntry)
	if time.Since(entry.storedAt) >= prefetchCacheTTL {
		ic.prefetchLRU.Remove(el)
		delete(ic.prefetch, key)
		return prefetchCacheEntry{}, false
	}
	ic.prefetchLRU.MoveToFront(el)
	return *entry, true
}

// invalidateBase drops every cached page and match set for one server.
// Tag applies call this so the next search cannot serve pre-apply rows.
func (ic *itemCache) invalidateBase(base string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for key, el := range ic.queries {
		if key.base == base {
			ic.queryLRU.Remove(el)
			delete(ic.queries, key)
		}
	}
	for key, el := range ic.prefetch {
		if key.base == base {
			ic.prefetchLRU.Remove(el)
			delete(ic.prefetch, key)
		}
	}
}

func (ic *itemCache) storeMatches(key searchKey, matches []dto.Item, total int, complete bool) {
	trimmed := matches
	if len(trimmed) > prefetchCacheLimit {
		trimmed = trimmed[:prefetchCacheLimit]
	}
	entry := &prefetchCacheEntry{
		key:       key,
		matches:   trimmed,
		total:     total,
		complete:  complete,
		truncated: len(trimmed) < total,
		storedAt:  time.Now(),
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if el, ok := ic.prefetch[key]; ok {
		el.Value = entry
		ic.prefetchLRU.MoveToFront(el)
		return
	}
	el := ic.prefetchLRU.PushFront(entry)
	ic.prefetch[key] = el
	for ic.prefetchLRU.Len() > prefetchCacheMaxEntries {
		oldest := ic.prefetchLRU.Back()
		ic.prefetchLRU.Remove(oldest)
		delete(ic.prefetch, oldest.Value.(*prefetchCacheEntry).key)
	}
}
