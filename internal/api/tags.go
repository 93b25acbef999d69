package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// tagWaitTimeout bounds how long /api/tags blocks for a first catalog
// before answering 202. Vars so tests can shorten the wait.
var (
	tagWaitTimeout = 5 * time.Second
	tagWaitPoll    = 500 * time.Millisecond
)

// pendingTagsMessage is the 202 body when a refresh has produced neither
// tags nor an error yet.
const pendingTagsMessage = "Gathering tags, please try again shortly."

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	var req dto.TagsRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, ok := s.client(w, req.Auth)
	if !ok {
		return
	}
	libraryID := strings.TrimSpace(req.LibraryID)
	userID := strings.TrimSpace(req.UserID)
	includeTypes := normalizeItemTypes(req.Types)
	s.logger.Info("Tag catalog request",
		"library", libraryID, "user", userID, "types", includeTypes)
	if libraryID == "" {
		s.writeError(w, http.StatusBadRequest, "libraryId is required")
		return
	}

	key := newTagKey(c.Base(), libraryID, userID, includeTypes)
	entry, have := s.tags.snapshot(key)
	needsRefresh := !have || s.tags.stale(entry)
	refreshing := s.tags.refreshing(key)
	if needsRefresh && !refreshing {
		s.tags.ensureRefresh(c, key, userID, libraryID, includeTypes, s.logger)
		refreshing = true
	}

	// Block briefly so a warm server answers in one round trip. Slow
	// refreshes fall through to 202 and the client polls /tags/status.
	deadline := time.Now().Add(tagWaitTimeout)
	for time.Now().Before(deadline) {
		entry, have = s.tags.snapshot(key)
		if have && len(entry.tags) > 0 {
			break
		}
		refreshing = s.tags.refreshing(key)
		if !refreshing {
			// A refresh that just failed leaves its message for the 202.
			if have && entry.err != "" {
				break
			}
			if needsRefresh {
				s.tags.ensureRefresh(c, key, userID, libraryID, includeTypes, s.logger)
				refreshing = true
			} else {
				break
			}
		}
		time.Sleep(tagWaitPoll)
	}

	if have && len(entry.tags) > 0 {
		s.logger.Info("Tag catalog ready",
			"count", len(entry.tags), "source", entry.source, "refreshing", entry.loading)
		s.writeJSON(w, http.StatusOK, dto.TagsResponse{
			Tags:        entry.tags,
			Source:      entry.source,
			Cached:      true,
			Loading:     entry.loading,
			LastUpdated: unixSeconds(entry.updatedAt),
		})
		return
	}

	message := pendingTagsMessage
	if have && entry.err != "" {
		message = entry.err
	}
	s.logger.Info("Tag catalog pending", "library", libraryID, "user", userID)
	s.writeJSON(w, http.StatusAccepted, dto.PendingResponse{
		Status:  dto.StatusPending,
		Message: message,
	})
}

// handleTagStatus reports refresh progress. It never rejects a request:
// an unknown or unconfigured catalog simply reads as not loading.
func (s *Server) handleTagStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.TagStatusRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	base, _ := s.resolveAuth(req.Auth)
	libraryID := strings.TrimSpace(req.LibraryID)
	userID := strings.TrimSpace(req.UserID)
	key := newTagKey(base, libraryID, userID, normalizeItemTypes(req.Types))

	entry, have := s.tags.snapshot(key)
	progress := s.tags.progressFor(key)
	resp := dto.TagStatusResponse{
		Loading:   have && entry.loading,
		Processed: progress.processed,
		Pages:     progress.pages,
	}
	if have {
		updated := unixSeconds(entry.updatedAt)
		resp.LastUpdated = &updated
	}
	s.writeJSON(w, http.StatusOK, resp)
}
