// Package tagutil provides the tag-string helpers shared by the client,
// the proxy, and the Jellyfin API layer. Tags compare case-insensitively
// but keep their first-seen casing for display.
package tagutil

import (
	"sort"
	"strings"
)

// Fold returns the comparison key for a tag: trimmed and lowercased.
func Fold(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Split breaks a raw tag string on commas and semicolons, trimming
// whitespace and dropping empty parts. Duplicates survive; callers that
// need set semantics use Normalize.
func Split(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Normalize splits raw and returns the distinct tags sorted
// case-insensitively. This is the canonical form for filter inputs and
// saved tag lists.
func Normalize(raw string) []string {
	return NormalizeList(Split(raw))
}

// NormalizeList dedupes and sorts an already-split tag list the same way
// Normalize does.
func NormalizeList(parts []string) []string {
	out := Dedupe(parts)
	SortFolded(out)
	return out
}

// Dedupe removes case-insensitive duplicates, keeping the first-seen
// casing and order. Entries are trimmed; empties are dropped.
func Dedupe(parts []string) []string {
	var out []string
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// Merge combines tag groups into one deduplicated list. Earlier groups
// win on casing, mirroring how item tags merge TagItems over Tags over
// inherited tags.
func Merge(groups ...[]string) []string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return Dedupe(all)
}

// SortFolded sorts tags in place, case-insensitively, with the original
// casing as tiebreak so the order is deterministic.
func SortFolded(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		a, b := strings.ToLower(tags[i]), strings.ToLower(tags[j])
		if a != b {
			return a < b
		}
		return tags[i] < tags[j]
	})
}

// Sorted returns a case-insensitively sorted copy without touching the
// input.
func Sorted(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	SortFolded(out)
	return out
}

// Join renders a tag list for display, "; "-separated.
func Join(tags []string) string {
	return strings.Join(tags, "; ")
}
