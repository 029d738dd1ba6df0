package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vmunix/reelshelf/internal/catalogcache"
	"github.com/vmunix/reelshelf/internal/classifier"
	"github.com/vmunix/reelshelf/internal/config"
	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/localstore"
	"github.com/vmunix/reelshelf/internal/profile"
	"github.com/vmunix/reelshelf/internal/progress"
	"github.com/vmunix/reelshelf/internal/scanner"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger writes text logs to stderr and, when a log file is configured,
// to a rotating file as well.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer) {
	var (
		w      = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.Log.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}
		w = io.MultiWriter(stderr, rotating)
		closer = rotating
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	return logger, closer
}

// loadConfig loads the file named by --config, or the discovered one.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return nil, fmt.Errorf("%w (run 'reelshelf config init')", err)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// app holds the components shared by the local commands and the daemon.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	kv       *localstore.Store
	files    *fsaccess.AferoProvider
	rootName string
	cache    *catalogcache.Cache
	progress *progress.Registry
	profiles *profile.Manager
	eventLog *events.EventLog
	bus      *events.Bus
	logFile  io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := localstore.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	kv := localstore.New(db)

	files := fsaccess.NewOSProvider(cfg.Library.Root)
	rootName := files.Name(files.Root())
	builder := library.NewBuilder(
		classifier.New(scanner.New(files, logger), cfg.Library.MaxDepth, logger),
		logger,
	)

	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger)

	// The cache keeps progress-free builds; readers overlay the current
	// profile's progress.
	cache := catalogcache.New(func(ctx context.Context) (*library.Catalog, error) {
		return builder.Build(ctx, files.Root(), rootName, nil)
	}, catalogcache.Options{
		TTL:       cfg.Cache.TTL,
		Persister: kv,
		Bus:       bus,
		Root:      rootName,
		Logger:    logger,
	})
	if err := cache.Restore(ctx); err != nil {
		logger.Warn("catalog snapshot not restored", "error", err)
	}

	registry := progress.NewRegistry(kv, progress.Options{
		Throttle: cfg.Progress.Throttle,
		ResolveType: func(identity string) library.MediaType {
			if c := cache.Peek(); c != nil {
				return c.MediaTypeOf(identity)
			}
			return library.MediaUnknown
		},
		Logger: logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		kv:       kv,
		files:    files,
		rootName: rootName,
		cache:    cache,
		progress: registry,
		profiles: profile.NewManager(kv, logger).WithPublisher(bus),
		eventLog: eventLog,
		bus:      bus,
		logFile:  nopCloser{},
	}, nil
}

// openApp loads the config and wires the components for a command.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, logFile := newLogger(cfg, os.Stderr)
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

// Close flushes pending progress and releases the database.
func (a *app) Close(ctx context.Context) error {
	a.cache.Wait()
	a.progress.Close(ctx)
	_ = a.bus.Close()
	err := a.db.Close()
	_ = a.logFile.Close()
	return err
}

// ensureDefaultProfile creates the configured default profile when it is
// missing and selects it when no profile is current.
func (a *app) ensureDefaultProfile(ctx context.Context) error {
	name := a.cfg.Profile.Default
	if name == "" {
		return nil
	}
	if _, err := a.profiles.Get(ctx, name); errors.Is(err, profile.ErrNotFound) {
		if _, err := a.profiles.Create(ctx, name); err != nil {
			return fmt.Errorf("create default profile: %w", err)
		}
		return nil
	} else if err != nil {
		return err
	}
	if _, err := a.profiles.Current(ctx); errors.Is(err, profile.ErrNoCurrent) {
		if _, err := a.profiles.Use(ctx, name); err != nil {
			return fmt.Errorf("select default profile: %w", err)
		}
	}
	return nil
}

// currentStore returns the progress store of the current profile.
func (a *app) currentStore(ctx context.Context) (*progress.Store, error) {
	if err := a.ensureDefaultProfile(ctx); err != nil {
		return nil, err
	}
	p, err := a.profiles.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'reelshelf profile create <name>')", err)
	}
	return a.progress.Store(ctx, p.Name)
}

// catalog returns the cached catalog with the current profile's progress.
func (a *app) catalog(ctx context.Context) (*library.Catalog, error) {
	cat, _, err := a.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.currentStore(ctx)
	if errors.Is(err, profile.ErrNoCurrent) {
		return cat, nil
	}
	if err != nil {
		return nil, err
	}
	return library.WithProgress(cat, store), nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
