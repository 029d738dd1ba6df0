// Package server runs the long-lived components of the daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/vmunix/reelshelf/internal/library"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful HTTP shutdown and the final
// progress flush.
const DefaultShutdownTimeout = 10 * time.Second

// Config for the server runner.
type Config struct {
	Addr string
	// RefreshInterval is how often the catalog is refreshed in the
	// background. Zero disables the loop; reads still refresh stale data.
	RefreshInterval time.Duration
	ShutdownTimeout time.Duration
}

// Refresher rebuilds the catalog. Implemented by catalogcache.Cache.
type Refresher interface {
	Refresh(ctx context.Context) (*library.Catalog, error)
}

// Watcher observes the library root until ctx is done. Implemented by
// fsaccess.Watcher.
type Watcher interface {
	Run(ctx context.Context) error
}

// Flusher writes pending state on shutdown. Implemented by progress.Registry.
type Flusher interface {
	Close(ctx context.Context)
}

// Handler is a background event handler. Implemented by the handlers package.
type Handler interface {
	Start(ctx context.Context) error
	Name() string
}

// Runner manages the daemon components.
type Runner struct {
	config   Config
	handler  http.Handler
	cache    Refresher
	watcher  Watcher
	progress Flusher
	handlers []Handler
	logger   *slog.Logger
}

// NewRunner creates a new runner serving handler.
func NewRunner(cfg Config, handler http.Handler, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		config:  cfg,
		handler: handler,
		logger:  logger.With("component", "server"),
	}
}

// WithCache enables the periodic catalog refresh loop.
func (r *Runner) WithCache(c Refresher) *Runner {
	r.cache = c
	return r
}

// WithWatcher runs w alongside the HTTP server.
func (r *Runner) WithWatcher(w Watcher) *Runner {
	r.watcher = w
	return r
}

// WithProgress flushes p after the HTTP server stops.
func (r *Runner) WithProgress(p Flusher) *Runner {
	r.progress = p
	return r
}

// WithHandlers runs each event handler alongside the HTTP server.
func (r *Runner) WithHandlers(hs ...Handler) *Runner {
	r.handlers = append(r.handlers, hs...)
	return r
}

// Run listens on the configured address and serves until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve runs every component on ln until ctx is canceled or one of them
// fails. Cancellation is a clean stop and returns nil.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           logRequests(r.handler, r.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Use errgroup to manage component lifecycle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if r.watcher != nil {
		g.Go(func() error {
			return r.watcher.Run(gctx)
		})
	}

	for _, h := range r.handlers {
		g.Go(func() error {
			r.logger.Debug("handler starting", "handler", h.Name())
			if err := h.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("handler %s: %w", h.Name(), err)
			}
			return nil
		})
	}

	if r.cache != nil && r.config.RefreshInterval > 0 {
		g.Go(func() error {
			r.refreshLoop(gctx)
			return nil
		})
	}

	err := g.Wait()

	if r.progress != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ShutdownTimeout)
		r.progress.Close(flushCtx)
		cancel()
	}
	r.logger.Info("server stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	r.logger.Info("catalog refresher started", "interval", r.config.RefreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			if _, err := r.cache.Refresh(ctx); err != nil {
				r.logger.Warn("background refresh failed", "error", err)
			}
		}
	}
}
