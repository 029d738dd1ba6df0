package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/progress"
)

// ResumeOffsetHeader carries the playback position a stream should start at.
const ResumeOffsetHeader = "X-Resume-Offset"

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	store, err := s.currentStore(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	p := store.Get(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No progress for "+id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) completeProgress(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePlayback(w, r)
	if !ok {
		return
	}
	store, err := s.currentStore(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !store.MarkCompleted(r.Context(), req.ID) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No progress for "+req.ID)
		return
	}
	p := store.Get(req.ID)
	s.publishCompleted(r.Context(), store.Profile(), p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := s.currentStore(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	limit := queryInt(r, "limit", 50)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be non-negative")
		return
	}

	records := store.History(limit)

	// Titles are best effort; history stays available while the library is not.
	cat, _, catErr := s.deps.Catalog.Get(ctx)
	if catErr != nil {
		s.logger.Debug("history without catalog", "error", catErr)
	}

	resp := listHistoryResponse{
		Profile: store.Profile(),
		Items:   make([]historyItem, len(records)),
		Total:   len(records),
	}
	for i, p := range records {
		item := historyItem{WatchProgress: p}
		if cat != nil {
			if found, err := cat.Lookup(p.MediaIdentity); err == nil {
				item.Title = found.Title()
				item.Available = true
			}
		}
		resp.Items[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := s.currentStore(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// With a prefix only that subtree (usually one series) is cleared.
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		n, err := store.ClearPrefix(ctx, prefix)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, clearHistoryResponse{Removed: n})
		return
	}

	n := len(store.History(0))
	if err := store.Clear(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, clearHistoryResponse{Removed: n})
}

// stream serves the bytes of a catalog item with range support. The resume
// offset is the stored position unless the title was finished or the profile
// disabled auto-resume.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	cat, _, err := s.deps.Catalog.Get(ctx)
	if err != nil {
		writeAccessError(w, err)
		return
	}
	item, err := cat.Lookup(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		return
	}
	ref := item.Ref()

	f, err := s.deps.Files.Open(ctx, ref)
	if err != nil {
		writeAccessError(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeAccessError(w, err)
		return
	}

	w.Header().Set(ResumeOffsetHeader, strconv.FormatFloat(s.resumeOffset(ctx, id), 'f', -1, 64))
	http.ServeContent(w, r, s.deps.Files.Name(ref), info.ModTime(), f)
}

func (s *Server) resumeOffset(ctx context.Context, id string) float64 {
	p, err := s.deps.Profiles.Current(ctx)
	if err != nil || !p.Settings.AutoResume {
		return 0
	}
	store, err := s.deps.Progress.Store(ctx, p.Name)
	if err != nil {
		return 0
	}
	wp := store.Get(id)
	if wp == nil || wp.Completed {
		return 0
	}
	return wp.Position
}

func decodePlayback(w http.ResponseWriter, r *http.Request) (playbackRequest, bool) {
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return req, false
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id is required")
		return req, false
	}
	return req, true
}

// playbackStore decodes a player callback and resolves the current store.
func (s *Server) playbackStore(w http.ResponseWriter, r *http.Request) (playbackRequest, *progress.Store, bool) {
	req, ok := decodePlayback(w, r)
	if !ok {
		return req, nil, false
	}
	store, err := s.currentStore(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return req, nil, false
	}
	return req, store, true
}

func (s *Server) playbackTimeUpdate(w http.ResponseWriter, r *http.Request) {
	req, store, ok := s.playbackStore(w, r)
	if !ok {
		return
	}
	store.RecordTick(r.Context(), req.ID, req.Position, req.Duration, s.now())
	w.WriteHeader(http.StatusNoContent)
}

// playbackFlush handles pause and unload: record the final position, then
// write it through regardless of the throttle.
func (s *Server) playbackFlush(w http.ResponseWriter, r *http.Request) {
	req, store, ok := s.playbackStore(w, r)
	if !ok {
		return
	}
	store.RecordTick(r.Context(), req.ID, req.Position, req.Duration, s.now())
	store.Flush(r.Context(), req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) playbackEnded(w http.ResponseWriter, r *http.Request) {
	req, store, ok := s.playbackStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	store.RecordTick(ctx, req.ID, req.Position, req.Duration, s.now())
	if !store.MarkCompleted(ctx, req.ID) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No progress for "+req.ID)
		return
	}
	p := store.Get(req.ID)
	s.publishCompleted(ctx, store.Profile(), p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) publishCompleted(ctx context.Context, profileName string, p *library.WatchProgress) {
	if s.deps.Bus == nil || p == nil {
		return
	}
	e := &events.PlaybackCompleted{
		BaseEvent: events.NewBaseEvent(events.EventPlaybackCompleted, events.EntityMedia, p.MediaIdentity),
		Profile:   profileName,
		MediaType: string(p.MediaType),
		Position:  p.Position,
		Duration:  p.Duration,
	}
	if err := s.deps.Bus.Publish(ctx, e); err != nil {
		s.logger.Warn("publish failed", "type", e.EventType(), "error", err)
	}
}
