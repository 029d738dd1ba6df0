package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/reelshelf/internal/events"
)

// liveEventTypes are pushed to presentation clients.
var liveEventTypes = []string{
	events.EventCatalogUpdated,
	events.EventPermissionChanged,
	events.EventProfileSwitched,
}

// streamEvents pushes events as server-sent events until the client goes
// away or the bus closes. With entity_type and entity_id every event about
// that entity is streamed instead of the live set. A Last-Event-ID header
// replays logged events the client missed before live delivery starts.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	q := events.Query{Types: liveEventTypes}
	var ch <-chan events.Event
	if entityType, entityID := r.URL.Query().Get("entity_type"), r.URL.Query().Get("entity_id"); entityType != "" && entityID != "" {
		q = events.Query{EntityType: entityType, EntityID: entityID}
		ch = s.deps.Bus.SubscribeEntity(entityType, entityID, 16)
	} else {
		ch = s.deps.Bus.SubscribeTypes(16, liveEventTypes...)
	}
	defer s.deps.Bus.Unsubscribe(ch)

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream unsupported", "error", err)
		return
	}

	var lastID int64
	if after, err := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64); err == nil && after > 0 && s.deps.EventLog != nil {
		q.AfterID = after
		missed, err := s.deps.EventLog.Find(r.Context(), q)
		if err != nil {
			s.logger.Warn("event replay failed", "after", after, "error", err)
		}
		for _, e := range missed {
			if writeSSE(w, e.ID, e.EventType, []byte(e.Payload)) != nil {
				return
			}
			lastID = e.ID
		}
		if rc.Flush() != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			id := logID(e)
			if id != 0 && id <= lastID {
				continue // already replayed
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("encode event failed", "type", e.EventType(), "error", err)
				continue
			}
			if writeSSE(w, id, e.EventType(), data) != nil || rc.Flush() != nil {
				return
			}
		}
	}
}

func logID(e events.Event) int64 {
	if l, ok := e.(interface{ LogID() int64 }); ok {
		return l.LogID()
	}
	return 0
}

// writeSSE writes one server-sent event. Unlogged events carry no id.
func writeSSE(w io.Writer, id int64, eventType string, data []byte) error {
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	if limit < 0 || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}

	q := events.Query{
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		Newest:     true,
		Limit:      limit,
		Offset:     offset,
	}
	if t := r.URL.Query().Get("event_type"); t != "" {
		q.Types = []string{t}
	}

	total, err := s.deps.EventLog.Count(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	raw, err := s.deps.EventLog.Find(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	resp := listEventsResponse{
		Items:  make([]EventResponse, len(raw)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, e := range raw {
		item := EventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
		// Unknown event types are listed without summary or payload.
		if typed, err := e.Decode(); err == nil {
			item.Summary = events.Describe(typed)
			item.Payload = json.RawMessage(e.Payload)
		} else {
			s.logger.Debug("undecodable event", "id", e.ID, "error", err)
		}
		resp.Items[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}
