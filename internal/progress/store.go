// Package progress keeps per-profile watch progress in memory and persists it
// to the local store with a per-identity write throttle.
package progress

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/localstore"
)

// DefaultThrottle is the minimum spacing between physical writes of one
// identity.
const DefaultThrottle = 5 * time.Second

// Persister is the subset of the local store used for progress records.
type Persister interface {
	Put(ctx context.Context, namespace, key string, v any) error
	List(ctx context.Context, namespace string) ([]localstore.Record, error)
	DeleteNamespace(ctx context.Context, namespace string) (int64, error)
	DeletePrefix(ctx context.Context, namespace, prefix string) (int64, error)
}

// Timer is a scheduled trailing flush.
type Timer interface {
	Stop() bool
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Throttle time.Duration
	Now      func() time.Time
	// AfterFunc schedules trailing flushes; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
	// ResolveType classifies an identity when a record is first created.
	ResolveType func(identity string) library.MediaType
	Logger      *slog.Logger
}

type entry struct {
	progress  library.WatchProgress
	dirty     bool
	written   bool
	lastWrite time.Time
	timer     Timer
	writeMu   sync.Mutex
}

// Store is the watch progress of one profile. It is the only writer of
// progress records for that profile.
type Store struct {
	persister Persister
	profile   string
	namespace string
	opts      Options
	logger    *slog.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	degraded bool
}

// New creates a progress store for profile. A nil persister keeps everything
// in memory.
func New(persister Persister, profile string, opts Options) *Store {
	if opts.Throttle <= 0 {
		opts.Throttle = DefaultThrottle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		persister: persister,
		profile:   profile,
		namespace: localstore.ProgressNamespace(profile),
		opts:      opts,
		logger:    logger.With("component", "progress", "profile", profile),
		entries:   make(map[string]*entry),
		degraded:  persister == nil,
	}
}

// Profile returns the profile this store belongs to.
func (s *Store) Profile() string { return s.profile }

// Degraded reports whether the store has stopped persisting after a storage
// failure.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func validSeconds(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// RecordTick upserts the playback position of identity. Ticks without a
// positive finite position and duration are ignored. The first tick of a
// window is written immediately; later ticks in the same window are coalesced
// into one trailing write at the window boundary carrying the latest values.
func (s *Store) RecordTick(ctx context.Context, identity string, position, duration float64, now time.Time) {
	if identity == "" || !validSeconds(position) || !validSeconds(duration) {
		return
	}

	s.mu.Lock()
	e := s.entries[identity]
	if e == nil {
		e = &entry{progress: library.WatchProgress{MediaIdentity: identity}}
		s.entries[identity] = e
	}
	e.progress.Position = position
	e.progress.Duration = duration
	e.progress.Completed = library.IsCompleted(position, duration)
	e.progress.Timestamp = now.UnixMilli()
	if e.progress.MediaType == "" || e.progress.MediaType == library.MediaUnknown {
		e.progress.MediaType = s.resolveType(identity)
	}
	e.dirty = true

	writeNow := !e.written || now.Sub(e.lastWrite) >= s.opts.Throttle
	if writeNow {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.written = true
		e.lastWrite = now
	} else if e.timer == nil {
		boundary := e.lastWrite.Add(s.opts.Throttle)
		flushCtx := context.WithoutCancel(ctx)
		e.timer = s.opts.AfterFunc(boundary.Sub(now), func() {
			s.trailingFlush(flushCtx, identity, boundary)
		})
	}
	s.mu.Unlock()

	if writeNow {
		s.persist(ctx, identity)
	}
}

func (s *Store) resolveType(identity string) library.MediaType {
	if s.opts.ResolveType == nil {
		return library.MediaUnknown
	}
	return s.opts.ResolveType(identity)
}

func (s *Store) trailingFlush(ctx context.Context, identity string, boundary time.Time) {
	s.mu.Lock()
	e := s.entries[identity]
	if e == nil {
		s.mu.Unlock()
		return
	}
	e.timer = nil
	e.lastWrite = boundary
	s.mu.Unlock()

	s.persist(ctx, identity)
}

// persist writes the current value of identity if it has unwritten changes.
// Writes of one identity never overlap.
func (s *Store) persist(ctx context.Context, identity string) {
	s.mu.Lock()
	e := s.entries[identity]
	s.mu.Unlock()
	if e == nil {
		return
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	s.mu.Lock()
	if !e.dirty || s.degraded {
		s.mu.Unlock()
		return
	}
	snapshot := e.progress
	e.dirty = false
	s.mu.Unlock()

	if err := s.persister.Put(ctx, s.namespace, identity, snapshot); err != nil {
		s.mu.Lock()
		s.degraded = true
		s.mu.Unlock()
		s.logger.Error("progress write failed, continuing in memory", "identity", identity, "error", err)
	}
}

// Flush writes identity immediately, bypassing the throttle. Used on pause,
// ended and unload.
func (s *Store) Flush(ctx context.Context, identity string) {
	s.mu.Lock()
	if e := s.entries[identity]; e != nil && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	s.mu.Unlock()

	s.persist(ctx, identity)
}

// FlushAll writes every identity with unwritten changes.
func (s *Store) FlushAll(ctx context.Context) {
	s.mu.Lock()
	var pending []string
	for id, e := range s.entries {
		if e.dirty || e.timer != nil {
			pending = append(pending, id)
		}
	}
	s.mu.Unlock()

	sort.Strings(pending)
	for _, id := range pending {
		s.Flush(ctx, id)
	}
}

// MarkCompleted forces identity to completed without touching its position
// or duration, and writes it immediately. Returns false when there is no
// record for identity.
func (s *Store) MarkCompleted(ctx context.Context, identity string) bool {
	s.mu.Lock()
	e := s.entries[identity]
	if e == nil {
		s.mu.Unlock()
		return false
	}
	e.progress.Completed = true
	e.progress.Timestamp = s.opts.Now().UnixMilli()
	e.dirty = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	s.mu.Unlock()

	s.persist(ctx, identity)
	return true
}

// Get returns a copy of the progress of identity, or nil. Unwritten updates
// are visible.
func (s *Store) Get(identity string) *library.WatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[identity]
	if e == nil {
		return nil
	}
	p := e.progress
	return &p
}

// Latest returns the most recently updated record of the profile, or nil.
func (s *Store) Latest() *library.WatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *library.WatchProgress
	for _, e := range s.entries {
		p := e.progress
		if latest == nil || newer(p, *latest) {
			latest = &p
		}
	}
	return latest
}

// newer orders records by timestamp, then identity so equal timestamps stay
// deterministic.
func newer(a, b library.WatchProgress) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.MediaIdentity > b.MediaIdentity
}

// History returns records newest first, at most limit of them when limit > 0.
func (s *Store) History(limit int) []library.WatchProgress {
	s.mu.Lock()
	out := make([]library.WatchProgress, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.progress)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Load primes memory from the local store. Records already held in memory
// with a newer timestamp win.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	records, err := s.persister.List(ctx, s.namespace)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		var p library.WatchProgress
		if err := r.Decode(&p); err != nil {
			s.logger.Warn("skipping unreadable progress record", "key", r.Key, "error", err)
			continue
		}
		p.MediaIdentity = r.Key
		if e := s.entries[r.Key]; e != nil && e.progress.Timestamp >= p.Timestamp {
			continue
		}
		s.entries[r.Key] = &entry{progress: p, written: true}
	}
	s.logger.Debug("progress loaded", "records", len(records))
	return nil
}

// Clear drops the whole history of the profile.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	_, err := s.persister.DeleteNamespace(ctx, s.namespace)
	return err
}

// ClearPrefix drops every record under a directory identity, typically one
// series, and returns how many in-memory records were removed.
func (s *Store) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.entries, id)
		removed++
	}
	s.mu.Unlock()

	if s.persister == nil {
		return removed, nil
	}
	if _, err := s.persister.DeletePrefix(ctx, s.namespace, prefix); err != nil {
		return removed, err
	}
	return removed, nil
}

// Close flushes pending writes.
func (s *Store) Close(ctx context.Context) {
	s.FlushAll(ctx)
}
