package api

import (
	"net/http"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// handleUsers relays the server's user list. Records pass through
// undecoded so no field the upstream added gets dropped.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	var req dto.UsersRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, ok := s.client(w, req.Auth)
	if !ok {
		return
	}
	users, err := c.Users()
	if err != nil {
		s.logger.Error("Failed to fetch users", "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Info("Fetched users", "count", len(users))
	s.writeJSON(w, http.StatusOK, users)
}

// handleLibraries relays the server's virtual folders.
func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	var req dto.LibrariesRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, ok := s.client(w, req.Auth)
	if !ok {
		return
	}
	libraries, err := c.VirtualFolders()
	if err != nil {
		s.logger.Error("Failed to fetch libraries", "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Info("Fetched libraries", "count", len(libraries))
	s.writeJSON(w, http.StatusOK, libraries)
}
