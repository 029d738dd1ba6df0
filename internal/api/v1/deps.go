package v1

import (
	"context"
	"errors"

	"github.com/vmunix/reelshelf/internal/catalogcache"
	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/profile"
	"github.com/vmunix/reelshelf/internal/progress"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// CatalogSource serves cached catalogs. Implemented by catalogcache.Cache.
type CatalogSource interface {
	Get(ctx context.Context) (*library.Catalog, catalogcache.State, error)
	Refresh(ctx context.Context) (*library.Catalog, error)
	Invalidate(ctx context.Context) (*library.Catalog, error)
	Info() catalogcache.Info
}

// ProgressSource hands out per-profile progress stores. Implemented by
// progress.Registry.
type ProgressSource interface {
	Store(ctx context.Context, profile string) (*progress.Store, error)
	Drop(ctx context.Context, profile string) error
}

// PermissionSource reports the last observed grant on the library root.
// Implemented by fsaccess.Watcher.
type PermissionSource interface {
	Last() fsaccess.Permission
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Catalog  CatalogSource
	Progress ProgressSource
	Profiles *profile.Manager

	// Optional dependencies (nil if not configured)
	Files      fsaccess.Provider // streaming and verify
	Permission PermissionSource
	Bus        *events.Bus      // live event stream, playback events
	EventLog   *events.EventLog // event audit log
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Catalog == nil {
		return errors.New("catalog source is required")
	}
	if d.Progress == nil {
		return errors.New("progress source is required")
	}
	if d.Profiles == nil {
		return errors.New("profile manager is required")
	}
	return nil
}
