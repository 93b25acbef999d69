package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/jellyfin"
	"github.com/blackwell-systems/tagctl/internal/nfo"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, ok := s.client(w, req.Auth)
	if !ok {
		return
	}
	userID := strings.TrimSpace(req.UserID)
	s.logger.Info("Apply", "user", userID, "changes", len(req.Changes))
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	updated := make([]dto.ItemUpdate, 0, len(req.Changes))
	changedAny := false
	for _, change := range req.Changes {
		result := s.applyChange(c, userID, change)
		if !result.Failed() && (len(result.Added) > 0 || len(result.Removed) > 0) {
			changedAny = true
		}
		updated = append(updated, result)
	}
	if changedAny {
		// Cached tag catalogs and item queries no longer reflect the
		// server; age them out so the next read refreshes.
		s.tags.markStale(c.Base())
		s.items.invalidateBase(c.Base())
	}
	s.logger.Info("Apply finished", "changes", len(updated))
	s.writeJSON(w, http.StatusOK, dto.ApplyResponse{Updated: updated})
}

// applyChange processes one item's delta. Failures land in the result's
// Errors and never abort the batch.
func (s *Server) applyChange(c *jellyfin.Client, userID string, change dto.TagChange) dto.ItemUpdate {
	adds := dropEmpty(change.Add)
	removes := dropEmpty(change.Remove)
	result := dto.ItemUpdate{
		ID:      change.ID,
		Added:   []string{},
		Removed: []string{},
		Errors:  []string{},
	}
	if change.ID == "" {
		result.Errors = append(result.Errors, "Missing item id")
		return result
	}
	if len(adds) == 0 && len(removes) == 0 {
		return result
	}

	s.logger.Info("Applying tag changes", "item", change.ID, "add", adds, "remove", removes)
	final, err := s.updateItemTags(c, userID, change.ID, adds, removes)
	if err != nil {
		s.logger.Error("Failed to update tags", "item", change.ID, "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Added = adds
	result.Removed = removes
	result.Tags = final
	return result
}

// updateItemTags fetches the item, merges the delta into its tag list
// and pushes the update. Added tags win the casing of any existing
// variant; removals match case-insensitively. Returns the final tag
// list.
func (s *Server) updateItemTags(c *jellyfin.Client, userID, itemID string, adds, removes []string) ([]string, error) {
	item, err := c.Item(userID, itemID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	for _, t := range item.AllTags() {
		if t != "" {
			merged[strings.ToLower(t)] = t
		}
	}
	for _, t := range adds {
		merged[strings.ToLower(t)] = t
	}
	for _, t := range removes {
		delete(merged, strings.ToLower(t))
	}
	final := make([]string, 0, len(merged))
	for _, t := range merged {
		final = append(final, t)
	}
	tagutil.SortFolded(final)

	payload := item.UpdatePayload()
	if _, ok := payload["Id"]; !ok {
		payload["Id"] = itemID
	}
	payload["Tags"] = final

	if err := c.UpdateItem(itemID, payload); err != nil {
		return nil, err
	}
	if s.opts.WriteNFO {
		if err := s.writeSidecar(item, final); err != nil {
			return nil, err
		}
	}
	return final, nil
}

// writeSidecar mirrors the updated metadata into the item's .nfo file.
// Items without a path are skipped. A failed write surfaces as the
// item's error even though the server update already landed; the client
// sees the item as failed and retries, which is harmless.
func (s *Server) writeSidecar(item *jellyfin.Item, finalTags []string) error {
	if strings.TrimSpace(item.Path) == "" {
		return nil
	}
	content, err := nfo.Render(sidecarMetadata(item, finalTags))
	if err != nil {
		return fmt.Errorf("rendering sidecar: %w", err)
	}
	path := sidecarPath(item.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	s.logger.Info("Wrote sidecar", "path", path)
	return nil
}

func sidecarMetadata(item *jellyfin.Item, finalTags []string) nfo.Metadata {
	people := make([]nfo.Person, 0, len(item.People))
	for _, p := range item.People {
		people = append(people, nfo.Person{Name: p.Name, Type: p.Type, Role: p.Role})
	}
	studios := make([]string, 0, len(item.Studios))
	for _, st := range item.Studios {
		studios = append(studios, st.Name)
	}
	return nfo.Metadata{
		Title:           item.Name,
		SortTitle:       item.SortName,
		Plot:            item.Overview,
		Taglines:        item.Taglines,
		CommunityRating: item.CommunityRating,
		CriticRating:    item.CriticRating,
		MPAA:            item.OfficialRating,
		Year:            item.ProductionYear,
		Premiered:       item.PremiereDate,
		Ended:           item.EndDate,
		Genres:          item.Genres,
		Tags:            finalTags,
		People:          people,
		Studios:         studios,
		ProviderIDs:     item.ProviderIDs,
	}
}

// sidecarPath swaps the media file's extension for .nfo.
func sidecarPath(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	return mediaPath[:len(mediaPath)-len(ext)] + ".nfo"
}

func dropEmpty(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
