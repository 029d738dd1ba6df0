// Package catalogcache serves catalogs with a time-to-live, refreshing stale
// data in the background without blocking readers.
package catalogcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/localstore"
)

// DefaultTTL is how long a build stays fresh.
const DefaultTTL = 5 * time.Minute

const snapshotKey = "catalog"

// State is the cache state observed by a read.
type State string

const (
	StateEmpty      State = "empty"
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
)

// BuildFunc produces a new catalog.
type BuildFunc func(ctx context.Context) (*library.Catalog, error)

// Persister stores the catalog snapshot across restarts.
type Persister interface {
	Get(ctx context.Context, namespace, key string, v any) error
	Put(ctx context.Context, namespace, key string, v any) error
	Delete(ctx context.Context, namespace, key string) error
}

// Publisher receives catalog.updated events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	TTL       time.Duration
	Now       func() time.Time
	Persister Persister
	Bus       Publisher
	// Root names the library in published events.
	Root   string
	Logger *slog.Logger
}

// Info describes the cache for presentation.
type Info struct {
	HasData    bool          `json:"has_data"`
	Age        time.Duration `json:"age"`
	Fresh      bool          `json:"fresh"`
	Refreshing bool          `json:"refreshing"`
	BuiltAt    time.Time     `json:"built_at,omitzero"`
}

type snapshot struct {
	Catalog   *library.Catalog `json:"catalog"`
	Timestamp time.Time        `json:"timestamp"`
}

// Cache holds the last good catalog. Refreshes never overlap: concurrent
// triggers join the build in flight.
type Cache struct {
	build  BuildFunc
	opts   Options
	logger *slog.Logger
	group  singleflight.Group
	wg     sync.WaitGroup

	mu         sync.Mutex
	catalog    *library.Catalog
	timestamp  time.Time
	refreshing bool
	restamp    bool // next applied build resets the timestamp even if unchanged
}

// New creates an empty cache over build.
func New(build BuildFunc, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		build:  build,
		opts:   opts,
		logger: logger.With("component", "catalog-cache"),
	}
}

// Restore loads the persisted snapshot, if any. The restored catalog is fresh
// or stale according to its original timestamp.
func (c *Cache) Restore(ctx context.Context) error {
	if c.opts.Persister == nil {
		return nil
	}
	var snap snapshot
	if err := c.opts.Persister.Get(ctx, localstore.NamespaceCache, snapshotKey, &snap); err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore catalog: %w", err)
	}
	if snap.Catalog == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog == nil {
		c.catalog = snap.Catalog
		c.timestamp = snap.Timestamp
		c.logger.Info("catalog restored", "built_at", snap.Timestamp,
			"movies", len(snap.Catalog.Movies), "series", len(snap.Catalog.Series))
	}
	return nil
}

// Get returns the cached catalog. An empty cache builds synchronously. A stale
// cache returns the old catalog at once and starts one background refresh.
// The returned catalog is shared and must not be modified.
func (c *Cache) Get(ctx context.Context) (*library.Catalog, State, error) {
	c.mu.Lock()
	if c.catalog == nil {
		c.mu.Unlock()
		cat, err := c.refresh(ctx)
		if err != nil {
			return nil, StateEmpty, err
		}
		return cat, StateFresh, nil
	}

	cat := c.catalog
	switch {
	case c.refreshing:
		c.mu.Unlock()
		return cat, StateRefreshing, nil
	case c.opts.Now().Sub(c.timestamp) < c.opts.TTL:
		c.mu.Unlock()
		return cat, StateFresh, nil
	}

	c.refreshing = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if _, err := c.refresh(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("background refresh failed, serving previous catalog", "error", err)
		}
	}()
	return cat, StateStale, nil
}

// Refresh rebuilds now, joining a build already in flight.
func (c *Cache) Refresh(ctx context.Context) (*library.Catalog, error) {
	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()
	return c.refresh(ctx)
}

// Invalidate drops the persisted snapshot and rebuilds. The catalog being
// replaced keeps serving readers, stays the baseline for change detection,
// and is restored to the store if the rebuild fails.
func (c *Cache) Invalidate(ctx context.Context) (*library.Catalog, error) {
	c.mu.Lock()
	prev, prevStamp := c.catalog, c.timestamp
	c.restamp = true
	c.mu.Unlock()

	if c.opts.Persister != nil {
		if err := c.opts.Persister.Delete(ctx, localstore.NamespaceCache, snapshotKey); err != nil {
			c.logger.Warn("failed to drop catalog snapshot", "error", err)
		}
	}
	c.logger.Info("catalog cache invalidated")

	cat, err := c.Refresh(ctx)
	if err != nil {
		c.mu.Lock()
		c.restamp = false
		current := c.catalog
		c.mu.Unlock()
		if prev != nil && current == prev {
			c.persist(ctx, snapshot{Catalog: prev, Timestamp: prevStamp})
		}
		return nil, err
	}
	return cat, nil
}

// refresh runs one build through the singleflight group and applies it.
func (c *Cache) refresh(ctx context.Context) (*library.Catalog, error) {
	v, err, _ := c.group.Do(snapshotKey, func() (any, error) {
		cat, err := c.build(ctx)
		if err != nil {
			c.mu.Lock()
			c.refreshing = false
			c.mu.Unlock()
			return nil, err
		}
		c.apply(ctx, cat)
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*library.Catalog), nil
}

func (c *Cache) apply(ctx context.Context, cat *library.Catalog) {
	c.mu.Lock()
	prev := c.catalog
	changed := prev == nil || !sameContent(prev, cat)
	c.catalog = cat
	if changed || c.restamp {
		c.timestamp = c.opts.Now()
	}
	c.restamp = false
	c.refreshing = false
	snap := snapshot{Catalog: cat, Timestamp: c.timestamp}
	c.mu.Unlock()

	c.persist(ctx, snap)

	if !changed {
		c.logger.Debug("catalog refreshed without changes")
		return
	}
	c.logger.Info("catalog updated", "movies", len(cat.Movies), "series", len(cat.Series))
	if prev != nil && c.opts.Bus != nil {
		e := &events.CatalogUpdated{
			BaseEvent:   events.NewBaseEvent(events.EventCatalogUpdated, events.EntityCatalog, c.opts.Root),
			Layout:      string(cat.Type),
			Movies:      len(cat.Movies),
			Series:      len(cat.Series),
			Failures:    len(cat.Failures),
			BuiltAtUnix: cat.BuiltAt.Unix(),
		}
		if err := c.opts.Bus.Publish(ctx, e); err != nil {
			c.logger.Warn("publish failed", "type", e.EventType(), "error", err)
		}
	}
}

func (c *Cache) persist(ctx context.Context, snap snapshot) {
	if c.opts.Persister == nil {
		return
	}
	if err := c.opts.Persister.Put(ctx, localstore.NamespaceCache, snapshotKey, snap); err != nil {
		c.logger.Warn("failed to persist catalog snapshot", "error", err)
	}
}

// sameContent compares movie file names and series titles as sorted lists,
// so duplicates in different folders count. Progress is ignored.
func sameContent(a, b *library.Catalog) bool {
	if len(a.Movies) != len(b.Movies) || len(a.Series) != len(b.Series) {
		return false
	}
	movieNames := func(c *library.Catalog) []string {
		out := make([]string, len(c.Movies))
		for i, mv := range c.Movies {
			out[i] = mv.OriginalName
		}
		slices.Sort(out)
		return out
	}
	seriesTitles := func(c *library.Catalog) []string {
		out := make([]string, len(c.Series))
		for i, s := range c.Series {
			out[i] = s.Title
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(movieNames(a), movieNames(b)) && slices.Equal(seriesTitles(a), seriesTitles(b))
}

// Info reports the cache age and flags.
func (c *Cache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalog == nil {
		return Info{Refreshing: c.refreshing}
	}
	age := c.opts.Now().Sub(c.timestamp)
	return Info{
		HasData:    true,
		Age:        age,
		Fresh:      age < c.opts.TTL,
		Refreshing: c.refreshing,
		BuiltAt:    c.catalog.BuiltAt,
	}
}

// Peek returns the cached catalog, or nil, without triggering a build.
func (c *Cache) Peek() *library.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// State reports the current state without triggering anything.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.catalog == nil:
		return StateEmpty
	case c.refreshing:
		return StateRefreshing
	case c.opts.Now().Sub(c.timestamp) < c.opts.TTL:
		return StateFresh
	default:
		return StateStale
	}
}

// Wait blocks until background refreshes started by Get have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}
