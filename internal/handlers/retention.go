package handlers

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetention is how long event log entries are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Pruner deletes old log entries. Implemented by events.EventLog.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RetentionHandler keeps the event log bounded. It prunes on start and then
// once per interval.
type RetentionHandler struct {
	base
	log       Pruner
	retention time.Duration
	interval  time.Duration
}

// NewRetentionHandler creates a retention handler. A non-positive retention
// selects DefaultRetention.
func NewRetentionHandler(log Pruner, retention time.Duration, logger *slog.Logger) *RetentionHandler {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionHandler{
		base:      newBase("retention", nil, logger),
		log:       log,
		retention: retention,
		interval:  time.Hour,
	}
}

// WithInterval overrides how often the log is pruned.
func (h *RetentionHandler) WithInterval(d time.Duration) *RetentionHandler {
	h.interval = d
	return h
}

// Start prunes until ctx is done.
func (h *RetentionHandler) Start(ctx context.Context) error {
	h.prune(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.prune(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *RetentionHandler) prune(ctx context.Context) {
	n, err := h.log.Prune(ctx, h.retention)
	if err != nil {
		h.logger.Warn("prune event log failed", "error", err)
		return
	}
	if n > 0 {
		h.logger.Info("pruned event log", "removed", n, "older_than", h.retention)
	}
}
