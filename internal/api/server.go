// Package api implements the HTTP proxy in front of a Jellyfin server:
// tag discovery with a warming cache, filtered item search, bulk tag
// application and CSV export. Handlers speak the POST-as-RPC contract
// in internal/dto; every request may carry its own Jellyfin address and
// API key, falling back to the server-level defaults.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/jellyfin"
)

// Options carries the server-level defaults handlers fall back to when
// a request does not override them.
type Options struct {
	// Base is the default Jellyfin base URL.
	Base string
	// APIKey is the default Jellyfin API key.
	APIKey string
	// WriteNFO enables sidecar .nfo writing after tag updates. Only
	// useful when the proxy shares the media filesystem.
	WriteNFO bool
}

// Server holds dependencies for the proxy handlers.
type Server struct {
	opts   Options
	logger *slog.Logger
	router *chi.Mux
	tags   *tagCache
	items  *itemCache
}

// New creates a proxy server with all routes configured.
func New(opts Options, logger *slog.Logger) *Server {
	s := &Server{
		opts:   opts,
		logger: logger,
		router: chi.NewRouter(),
		tags:   newTagCache(),
		items:  newItemCache(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// requestLogger logs completed requests through the server's logger so
// callers embedding the proxy control where the output goes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	})
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleUsers)
		r.Post("/libraries", s.handleLibraries)
		r.Post("/tags", s.handleTags)
		r.Post("/tags/status", s.handleTagStatus)
		r.Post("/items", s.handleItems)
		r.Post("/export", s.handleExport)
		r.Post("/apply", s.handleApply)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func normalizeBase(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// resolveAuth picks the Jellyfin address and key for one request:
// request values win, server defaults fill the gaps.
func (s *Server) resolveAuth(a dto.Auth) (base, key string) {
	base = normalizeBase(a.Base)
	if base == "" {
		base = normalizeBase(s.opts.Base)
	}
	key = strings.TrimSpace(a.APIKey)
	if key == "" {
		key = strings.TrimSpace(s.opts.APIKey)
	}
	return base, key
}

// client resolves request auth into an upstream client, answering the
// request itself with a 400 when no base URL is available.
func (s *Server) client(w http.ResponseWriter, a dto.Auth) (*jellyfin.Client, bool) {
	base, key := s.resolveAuth(a)
	if base == "" {
		s.writeError(w, http.StatusBadRequest, "Jellyfin base URL is required")
		return nil, false
	}
	return jellyfin.New(base, key), true
}
