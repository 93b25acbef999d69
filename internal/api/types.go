package api

import "strings"

// collectionItemTypes are the container types dropped when a search
// excludes collections.
var collectionItemTypes = []string{"BoxSet", "CollectionFolder"}

// knownItemTypes maps casefolded names to the exact casing the Jellyfin
// API expects in IncludeItemTypes.
var knownItemTypes = map[string]string{
	"movie":            "Movie",
	"series":           "Series",
	"season":           "Season",
	"episode":          "Episode",
	"audio":            "Audio",
	"audiobook":        "AudioBook",
	"musicvideo":       "MusicVideo",
	"musicalbum":       "MusicAlbum",
	"musicartist":      "MusicArtist",
	"playlist":         "Playlist",
	"boxset":           "BoxSet",
	"collectionfolder": "CollectionFolder",
	"folder":           "Folder",
	"photo":            "Photo",
	"photoalbum":       "PhotoAlbum",
	"book":             "Book",
	"video":            "Video",
	"program":          "Program",
	"recording":        "Recording",
	"tvchannel":        "TvChannel",
	"trailer":          "Trailer",
}

// normalizeItemTypes canonicalizes user-supplied item types: entries may
// themselves be comma-separated, casing is corrected for known types,
// unknown types pass through as given, duplicates collapse.
func normalizeItemTypes(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			text := strings.TrimSpace(part)
			if text == "" {
				continue
			}
			canonical, ok := knownItemTypes[strings.ToLower(text)]
			if !ok {
				canonical = text
			}
			key := strings.ToLower(canonical)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, canonical)
		}
	}
	return out
}
