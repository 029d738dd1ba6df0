package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a persisted event has no Go type.
var ErrUnknownType = errors.New("unknown event type")

var kinds = map[string]func() Event{
	EventCatalogUpdated:    func() Event { return &CatalogUpdated{} },
	EventPermissionChanged: func() Event { return &PermissionChanged{} },
	EventPlaybackCompleted: func() Event { return &PlaybackCompleted{} },
	EventProfileSwitched:   func() Event { return &ProfileSwitched{} },
}

// Decode rebuilds the typed event for a stored payload.
func Decode(eventType string, payload []byte) (Event, error) {
	newEvent, ok := kinds[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, eventType)
	}
	e := newEvent()
	if err := json.Unmarshal(payload, e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	return e, nil
}

// Decode rebuilds the typed event held by r.
func (r RawEvent) Decode() (Event, error) {
	return Decode(r.EventType, []byte(r.Payload))
}

// Describe renders a one-line account of e for people reading the log.
func Describe(e Event) string {
	switch e := e.(type) {
	case *CatalogUpdated:
		s := fmt.Sprintf("%s catalog: %d movies, %d series", e.Layout, e.Movies, e.Series)
		if e.Failures > 0 {
			s += fmt.Sprintf(", %d unreadable", e.Failures)
		}
		return s
	case *PermissionChanged:
		if e.OldState == "" {
			return "library access " + e.NewState
		}
		return fmt.Sprintf("library access %s -> %s", e.OldState, e.NewState)
	case *PlaybackCompleted:
		return fmt.Sprintf("%s finished %s", e.Profile, lastElem(e.EntityID()))
	case *ProfileSwitched:
		if e.Previous == "" {
			return "switched to " + e.Current
		}
		return fmt.Sprintf("switched from %s to %s", e.Previous, e.Current)
	default:
		return e.EventType() + " " + e.EntityID()
	}
}

func lastElem(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}
