// Package v1 implements the native REST API used by the presentation layer
// and the player.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/profile"
	"github.com/vmunix/reelshelf/internal/progress"
)

// Server is the v1 API server.
type Server struct {
	deps   ServerDeps
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new v1 API server.
func New(deps ServerDeps, logger *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:   deps,
		now:    time.Now,
		logger: logger.With("component", "api"),
	}, nil
}

// WithClock overrides the time source used to stamp playback ticks.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /api/v1/catalog", s.getCatalog)
	mux.HandleFunc("GET /api/v1/catalog/info", s.getCatalogInfo)
	mux.HandleFunc("POST /api/v1/catalog/refresh", s.refreshCatalog)
	mux.HandleFunc("GET /api/v1/search", s.search)
	mux.HandleFunc("GET /api/v1/series", s.getSeries)

	// Progress
	mux.HandleFunc("GET /api/v1/progress", s.getProgress)
	mux.HandleFunc("POST /api/v1/progress/complete", s.completeProgress)
	mux.HandleFunc("GET /api/v1/history", s.listHistory)
	mux.HandleFunc("DELETE /api/v1/history", s.clearHistory)

	// Player
	mux.HandleFunc("GET /api/v1/stream", s.requireFiles(s.stream))
	mux.HandleFunc("POST /api/v1/playback/timeupdate", s.playbackTimeUpdate)
	mux.HandleFunc("POST /api/v1/playback/pause", s.playbackFlush)
	mux.HandleFunc("POST /api/v1/playback/unload", s.playbackFlush)
	mux.HandleFunc("POST /api/v1/playback/ended", s.playbackEnded)

	// Profiles
	mux.HandleFunc("GET /api/v1/profiles", s.listProfiles)
	mux.HandleFunc("POST /api/v1/profiles", s.createProfile)
	mux.HandleFunc("GET /api/v1/profiles/current", s.getCurrentProfile)
	mux.HandleFunc("PUT /api/v1/profiles/current", s.useProfile)
	mux.HandleFunc("DELETE /api/v1/profiles/{name}", s.deleteProfile)
	mux.HandleFunc("GET /api/v1/profiles/{name}/stats", s.profileStats)
	mux.HandleFunc("PATCH /api/v1/profiles/{name}/settings", s.updateProfileSettings)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireBus(s.streamEvents))
	mux.HandleFunc("GET /api/v1/events/log", s.requireEventLog(s.listEvents))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/verify", s.verify)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryID extracts the required identity parameter.
func queryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id is required")
		return "", false
	}
	return id, true
}

// writeAccessError maps library access failures to responses.
func writeAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fsaccess.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "ACCESS_DENIED", "Library access denied: "+err.Error())
	case errors.Is(err, fsaccess.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "SCAN_ERROR", err.Error())
	}
}

// currentStore returns the progress store of the current profile.
func (s *Server) currentStore(ctx context.Context) (*progress.Store, error) {
	p, err := s.deps.Profiles.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Progress.Store(ctx, p.Name)
}

// writeStoreError maps failures of currentStore to responses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, profile.ErrNoCurrent) {
		writeError(w, http.StatusConflict, "NO_PROFILE", "No profile selected")
		return
	}
	writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
}

// catalog returns the cached catalog overlaid with the current profile's
// progress. Without a current profile the catalog carries no progress.
func (s *Server) catalog(ctx context.Context) (*library.Catalog, string, error) {
	cat, state, err := s.deps.Catalog.Get(ctx)
	if err != nil {
		return nil, "", err
	}
	store, err := s.currentStore(ctx)
	switch {
	case err == nil:
		return library.WithProgress(cat, store), string(state), nil
	case errors.Is(err, profile.ErrNoCurrent):
		return cat, string(state), nil
	default:
		return nil, "", err
	}
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	cat, state, err := s.catalog(r.Context())
	if err != nil {
		writeAccessError(w, err)
		return
	}
	if err := cat.Err(); err != nil {
		writeError(w, http.StatusNotFound, "NO_CONTENT", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Catalog: cat, State: state})
}

func (s *Server) getCatalogInfo(w http.ResponseWriter, r *http.Request) {
	info := s.deps.Catalog.Info()
	resp := catalogInfoResponse{
		HasData:    info.HasData,
		AgeSeconds: int64(info.Age / time.Second),
		Fresh:      info.Fresh,
		Refreshing: info.Refreshing,
	}
	if !info.BuiltAt.IsZero() {
		resp.BuiltAt = info.BuiltAt.UTC().Format(time.RFC3339)
	}
	if s.deps.Permission != nil {
		resp.Permission = string(s.deps.Permission.Last())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	refresh := s.deps.Catalog.Refresh
	if r.URL.Query().Get("invalidate") == "true" {
		refresh = s.deps.Catalog.Invalidate
	}
	cat, err := refresh(r.Context())
	if err != nil {
		writeAccessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogSummary{
		Layout:   string(cat.Type),
		Movies:   len(cat.Movies),
		Series:   len(cat.Series),
		Failures: cat.Failures,
		BuiltAt:  cat.BuiltAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "q is required")
		return
	}
	cat, _, err := s.deps.Catalog.Get(r.Context())
	if err != nil {
		writeAccessError(w, err)
		return
	}

	matches := cat.Find(q)
	if limit := queryInt(r, "limit", 0); limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []library.Match{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: matches})
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	cat, _, err := s.catalog(r.Context())
	if err != nil {
		writeAccessError(w, err)
		return
	}
	series, err := cat.SeriesByIdentity(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Series not found")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok", Cache: s.cacheState()}
	if p, err := s.deps.Profiles.Current(r.Context()); err == nil {
		resp.Profile = p.Name
	}
	if s.deps.Permission != nil {
		resp.Permission = string(s.deps.Permission.Last())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) cacheState() string {
	info := s.deps.Catalog.Info()
	switch {
	case !info.HasData:
		return "empty"
	case info.Refreshing:
		return "refreshing"
	case info.Fresh:
		return "fresh"
	default:
		return "stale"
	}
}
