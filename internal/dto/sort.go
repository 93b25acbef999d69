package dto

import (
	"sort"
	"strings"
	"time"
)

// NormalizeSort clamps sort parameters to the supported field and order
// values, accepting the common short forms for order.
func NormalizeSort(sortBy, sortOrder string) (string, string) {
	by := strings.TrimSpace(sortBy)
	if by != SortByName && by != SortByPremiere {
		by = DefaultSortBy
	}
	var order string
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "descending", "desc":
		order = SortDescending
	case "ascending", "asc":
		order = SortAscending
	default:
		order = DefaultSortOrder
	}
	return by, order
}

// SortItems orders items in place for presentation: by name key, or by
// release date with undated items always last and the name key as
// tiebreak.
func SortItems(items []Item, sortBy, sortOrder string) {
	by, order := NormalizeSort(sortBy, sortOrder)
	descending := order == SortDescending

	if by == SortByPremiere {
		sort.SliceStable(items, func(i, j int) bool {
			ti, oki := releaseTime(items[i])
			tj, okj := releaseTime(items[j])
			if oki != okj {
				return oki
			}
			if oki && !ti.Equal(tj) {
				if descending {
					return ti.After(tj)
				}
				return ti.Before(tj)
			}
			return nameLess(items[i], items[j])
		})
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		return nameLess(items[i], items[j])
	})
	if descending {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
}

// nameKey is the presentation sort key: folded sort title, folded
// display name, then ID so equal names order deterministically.
func nameKey(it Item) (string, string, string) {
	sortName := it.SortName
	if sortName == "" {
		sortName = it.Name
	}
	return strings.ToLower(sortName), strings.ToLower(it.Name), it.ID
}

func nameLess(a, b Item) bool {
	a1, a2, a3 := nameKey(a)
	b1, b2, b3 := nameKey(b)
	if a1 != b1 {
		return a1 < b1
	}
	if a2 != b2 {
		return a2 < b2
	}
	return a3 < b3
}

// releaseTime resolves an item's release instant: PremiereDate when it
// parses, else January 1 UTC of ProductionYear, else unknown.
func releaseTime(it Item) (time.Time, bool) {
	if ts, ok := parseServerTime(it.PremiereDate); ok {
		return ts, true
	}
	if it.ProductionYear > 0 {
		return time.Date(it.ProductionYear, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Server timestamps arrive in several shapes; zone-less values are read
// as UTC.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseServerTime(value string) (time.Time, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range serverTimeLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
