// internal/api/v1/types.go
package v1

import (
	"encoding/json"

	"github.com/vmunix/reelshelf/internal/library"
)

// catalogResponse is the response for GET /catalog.
type catalogResponse struct {
	*library.Catalog
	State string `json:"state"`
}

// catalogInfoResponse is the response for GET /catalog/info.
type catalogInfoResponse struct {
	HasData    bool   `json:"has_data"`
	AgeSeconds int64  `json:"age_seconds"`
	Fresh      bool   `json:"fresh"`
	Refreshing bool   `json:"refreshing"`
	BuiltAt    string `json:"built_at,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// catalogSummary is the response for POST /catalog/refresh.
type catalogSummary struct {
	Layout   string   `json:"layout"`
	Movies   int      `json:"movies"`
	Series   int      `json:"series"`
	Failures []string `json:"failures,omitempty"`
	BuiltAt  string   `json:"built_at"`
}

type searchResponse struct {
	Query   string          `json:"query"`
	Results []library.Match `json:"results"`
}

// historyItem is one watched title, resolved against the catalog when it is
// still present.
type historyItem struct {
	library.WatchProgress
	Title     string `json:"title,omitempty"`
	Available bool   `json:"available"`
}

type listHistoryResponse struct {
	Profile string        `json:"profile"`
	Items   []historyItem `json:"items"`
	Total   int           `json:"total"`
}

type clearHistoryResponse struct {
	Removed int `json:"removed"`
}

// playbackRequest is the body of the playback and progress endpoints.
type playbackRequest struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

type createProfileRequest struct {
	Name string `json:"name"`
}

type statusResponse struct {
	Status     string `json:"status"`
	Cache      string `json:"cache"`
	Profile    string `json:"profile,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// EventResponse is one entry of the event log.
type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OccurredAt string          `json:"occurred_at"`
	Summary    string          `json:"summary,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type listEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
