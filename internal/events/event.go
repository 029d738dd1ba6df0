// Package events carries notifications between reelshelf components and
// keeps an append-only log of them.
package events

import "time"

// Event is something that happened to a catalog, the library root, a media
// item or a profile.
type Event interface {
	EventType() string
	EntityType() string
	EntityID() string
	OccurredAt() time.Time
}

// BaseEvent holds the envelope shared by every event. Concrete events embed
// it and add their own payload fields.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        string    `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`

	seq int64
}

// NewBaseEvent stamps an envelope with the current UTC time.
func NewBaseEvent(eventType, entityType, entityID string) BaseEvent {
	return BaseEvent{Type: eventType, Entity: entityType, ID: entityID, Timestamp: time.Now().UTC()}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() string      { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// LogID is the event log ID assigned when the event was published, or 0 when
// it was not persisted.
func (e BaseEvent) LogID() int64 { return e.seq }

func (e *BaseEvent) setLogID(id int64) { e.seq = id }

// logged is satisfied by pointers to events that embed BaseEvent.
type logged interface {
	LogID() int64
	setLogID(id int64)
}
