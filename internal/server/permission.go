package server

import (
	"context"
	"log/slog"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/fsaccess"
)

// Publisher publishes events. Implemented by events.Bus.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// PermissionHandler returns the watcher callback of the daemon. Every
// transition of the library root grant is published as permission.changed;
// reactions such as refreshing the catalog subscribe to it.
func PermissionHandler(pub Publisher, root string, logger *slog.Logger) fsaccess.ChangeFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "permission")

	return func(ctx context.Context, prev, cur fsaccess.Permission) {
		logger.Info("library permission changed", "root", root, "from", prev, "to", cur)
		if err := pub.Publish(ctx, &events.PermissionChanged{
			BaseEvent: events.NewBaseEvent(events.EventPermissionChanged, events.EntityLibrary, root),
			OldState:  string(prev),
			NewState:  string(cur),
		}); err != nil {
			logger.Warn("publish permission change failed", "error", err)
		}
	}
}
