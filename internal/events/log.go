package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventLog is the append-only SQLite record of published events.
type EventLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventLog creates an event log on db. The events table must exist.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db, now: time.Now}
}

// RawEvent is a stored event with its JSON payload undecoded.
type RawEvent struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   string
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Append stores e and returns its log ID. IDs increase with every append.
func (l *EventLog) Append(ctx context.Context, e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", e.EventType(), err)
	}
	return res.LastInsertId()
}

// Query narrows a read of the log. Zero fields match everything.
type Query struct {
	AfterID    int64
	Since      time.Time
	EntityType string
	EntityID   string
	Types      []string
	Limit      int
	Newest     bool // newest first instead of oldest first
	Offset     int
}

func (q Query) where() (string, []any) {
	var conds []string
	var args []any
	if q.AfterID > 0 {
		conds = append(conds, "id > ?")
		args = append(args, q.AfterID)
	}
	if !q.Since.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, q.Since.UTC())
	}
	if q.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, q.EntityType)
	}
	if q.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, q.EntityID)
	}
	if len(q.Types) > 0 {
		conds = append(conds, "event_type IN (?"+strings.Repeat(", ?", len(q.Types)-1)+")")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns the events matching q.
func (l *EventLog) Find(ctx context.Context, q Query) ([]RawEvent, error) {
	where, args := q.where()
	stmt := `SELECT id, event_type, entity_type, entity_id, payload, occurred_at, created_at FROM events` + where
	if q.Newest {
		stmt += ` ORDER BY id DESC`
	} else {
		stmt += ` ORDER BY id ASC`
	}
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, limit, q.Offset)
	}

	rows, err := l.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns how many events match q. Limit and Offset are ignored.
func (l *EventLog) Count(ctx context.Context, q Query) (int, error) {
	where, args := q.where()
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// ForEntity returns the history of one entity, oldest first.
func (l *EventLog) ForEntity(ctx context.Context, entityType, entityID string) ([]RawEvent, error) {
	return l.Find(ctx, Query{EntityType: entityType, EntityID: entityID})
}

// Recent returns one page of the log, newest first, with the total size.
func (l *EventLog) Recent(ctx context.Context, limit, offset int) ([]RawEvent, int, error) {
	total, err := l.Count(ctx, Query{})
	if err != nil {
		return nil, 0, err
	}
	page, err := l.Find(ctx, Query{Newest: true, Limit: limit, Offset: offset})
	return page, total, err
}

// Prune deletes events that occurred more than olderThan ago.
func (l *EventLog) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := l.now().Add(-olderThan).UTC()
	res, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}
