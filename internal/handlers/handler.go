// Package handlers runs background reactions to bus events.
package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/reelshelf/internal/events"
)

// Handler is a long-running task started alongside the HTTP server.
// Start blocks until ctx is done or the handler has nothing left to do.
type Handler interface {
	Start(ctx context.Context) error
	Name() string
}

// base holds what every handler shares. Handlers that only run on a timer
// leave bus nil.
type base struct {
	name   string
	bus    *events.Bus
	logger *slog.Logger
}

func newBase(name string, bus *events.Bus, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{name: name, bus: bus, logger: logger.With("handler", name)}
}

// Name returns the handler name used in logs and runner errors.
func (b base) Name() string { return b.name }

// consume hands events of the given types to fn until ctx is done. A closed
// bus ends consumption without error.
func (b base) consume(ctx context.Context, fn func(context.Context, events.Event), eventTypes ...string) error {
	ch := b.bus.SubscribeTypes(16, eventTypes...)
	defer b.bus.Unsubscribe(ch)

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			fn(ctx, e)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
