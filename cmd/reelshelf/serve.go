package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	v1 "github.com/vmunix/reelshelf/internal/api/v1"
	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/handlers"
	"github.com/vmunix/reelshelf/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serves the catalog, progress and profile API until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, func(a *app) error {
			runner, err := newRunner(ctx, a)
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newRunner wires the API and the background components of the daemon.
func newRunner(ctx context.Context, a *app) (*server.Runner, error) {
	if err := a.ensureDefaultProfile(ctx); err != nil {
		return nil, err
	}

	watcher := fsaccess.NewWatcher(a.files, a.cfg.Permission.PollInterval,
		server.PermissionHandler(a.bus, a.rootName, a.logger), a.logger)

	api, err := v1.New(v1.ServerDeps{
		Catalog:    a.cache,
		Progress:   a.progress,
		Profiles:   a.profiles,
		Files:      a.files,
		Permission: watcher,
		Bus:        a.bus,
		EventLog:   a.eventLog,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	a.logger.Info("server starting",
		"addr", addr,
		"library", a.cfg.Library.Root,
		"database", a.cfg.Database.Path,
		"log_level", a.cfg.Server.LogLevel,
	)

	return server.NewRunner(server.Config{
		Addr:            addr,
		RefreshInterval: a.cfg.Cache.RefreshInterval,
	}, mux, a.logger).
		WithCache(a.cache).
		WithWatcher(watcher).
		WithProgress(a.progress).
		WithHandlers(
			handlers.NewRefreshHandler(a.bus, a.cache, a.logger),
			handlers.NewRetentionHandler(a.eventLog, a.cfg.Events.Retention, a.logger),
		), nil
}
