package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/library"
)

// Refresher rebuilds the catalog. Implemented by catalogcache.Cache.
type Refresher interface {
	Refresh(ctx context.Context) (*library.Catalog, error)
}

// RefreshHandler rebuilds the catalog when read access to the library root
// comes back, so the library reappears without waiting for the next refresh.
type RefreshHandler struct {
	base
	cache Refresher
}

// NewRefreshHandler creates a refresh handler listening on bus.
func NewRefreshHandler(bus *events.Bus, cache Refresher, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{
		base:  newBase("refresh", bus, logger),
		cache: cache,
	}
}

// Start reacts to permission changes until ctx is done or the bus closes.
func (h *RefreshHandler) Start(ctx context.Context) error {
	return h.consume(ctx, func(ctx context.Context, e events.Event) {
		if pc, ok := e.(*events.PermissionChanged); ok {
			h.handlePermissionChanged(ctx, pc)
		}
	}, events.EventPermissionChanged)
}

// regained reports a transition into granted from a known, non-granted state.
// The first observation of a run has no previous state and is not a change.
func regained(old, cur string) bool {
	return old != "" && old != string(fsaccess.PermissionGranted) && cur == string(fsaccess.PermissionGranted)
}

func (h *RefreshHandler) handlePermissionChanged(ctx context.Context, e *events.PermissionChanged) {
	if !regained(e.OldState, e.NewState) {
		return
	}
	h.logger.Info("library access regained, refreshing catalog", "root", e.EntityID())
	if _, err := h.cache.Refresh(ctx); err != nil {
		h.logger.Warn("refresh after regaining access failed", "error", err)
	}
}
