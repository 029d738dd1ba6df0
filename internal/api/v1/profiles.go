package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vmunix/reelshelf/internal/profile"
)

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, profile.ErrExists):
		writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, profile.ErrNoCurrent):
		writeError(w, http.StatusConflict, "NO_PROFILE", err.Error())
	case errors.Is(err, profile.ErrInvalidName), errors.Is(err, profile.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, "INVALID_PROFILE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
	}
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.deps.Profiles.List(r.Context())
	if err != nil {
		writeProfileError(w, err)
		return
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	p, err := s.deps.Profiles.Create(r.Context(), req.Name)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getCurrentProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Profiles.Current(r.Context())
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) useProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	ctx := r.Context()

	// Pending writes of the profile being left are flushed before switching.
	if prev, err := s.deps.Profiles.Current(ctx); err == nil && prev.Name != req.Name {
		if store, err := s.deps.Progress.Store(ctx, prev.Name); err == nil {
			store.FlushAll(ctx)
		}
	}

	p, err := s.deps.Profiles.Use(ctx, req.Name)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := r.Context()

	if err := s.deps.Profiles.Delete(ctx, name); err != nil {
		writeProfileError(w, err)
		return
	}
	if err := s.deps.Progress.Drop(ctx, name); err != nil {
		s.logger.Warn("failed to drop progress of deleted profile", "profile", name, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) profileStats(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := r.Context()

	if _, err := s.deps.Profiles.Get(ctx, name); err != nil {
		writeProfileError(w, err)
		return
	}
	// Stats read the local store; throttled updates are written first.
	if store, err := s.deps.Progress.Store(ctx, name); err == nil {
		store.FlushAll(ctx)
	}

	stats, err := s.deps.Profiles.Stats(ctx, name)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) updateProfileSettings(w http.ResponseWriter, r *http.Request) {
	var upd profile.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	p, err := s.deps.Profiles.UpdateSettings(r.Context(), r.PathValue("name"), upd)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
