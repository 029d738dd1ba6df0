package fsaccess

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how often the root grant is re-checked.
const DefaultPollInterval = 8 * time.Second

// ChangeFunc is called when the observed permission changes.
type ChangeFunc func(ctx context.Context, prev, cur Permission)

// Watcher polls the permission on a provider's root and reports transitions.
// The grant is process-wide state owned by the provider; the watcher only
// observes it.
type Watcher struct {
	provider Provider
	interval time.Duration
	onChange ChangeFunc
	logger   *slog.Logger

	mu   sync.Mutex
	last Permission
}

// NewWatcher creates a permission watcher. A zero interval selects
// DefaultPollInterval.
func NewWatcher(p Provider, interval time.Duration, onChange ChangeFunc, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		provider: p,
		interval: interval,
		onChange: onChange,
		logger:   logger,
	}
}

// Check queries the permission once and fires onChange on a transition.
// The first observation counts as a transition from the zero value.
func (w *Watcher) Check(ctx context.Context) Permission {
	perm, err := w.provider.QueryPermission(ctx, w.provider.Root())
	if err != nil {
		w.logger.Warn("permission query failed", "error", err)
		return w.Last()
	}

	w.mu.Lock()
	prev := w.last
	w.last = perm
	w.mu.Unlock()

	if perm != prev {
		w.logger.Info("permission changed", "from", prev, "to", perm)
		if w.onChange != nil {
			w.onChange(ctx, prev, perm)
		}
	}
	return perm
}

// Last returns the most recently observed permission.
func (w *Watcher) Last() Permission {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run polls until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
