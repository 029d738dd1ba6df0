// Package profile manages named viewer profiles. Each profile owns its own
// watch progress namespace in the local store.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/localstore"
)

const currentKey = "current"

// Settings are per-profile playback preferences.
type Settings struct {
	AutoResume    bool    `json:"auto_resume"`
	DefaultVolume float64 `json:"default_volume"`
	PlaybackSpeed float64 `json:"playback_speed"`
}

// DefaultSettings returns the settings of a new profile.
func DefaultSettings() Settings {
	return Settings{AutoResume: true, DefaultVolume: 0.8, PlaybackSpeed: 1.0}
}

// SettingsUpdate holds the fields to change; nil fields are kept.
type SettingsUpdate struct {
	AutoResume    *bool    `json:"auto_resume,omitempty"`
	DefaultVolume *float64 `json:"default_volume,omitempty"`
	PlaybackSpeed *float64 `json:"playback_speed,omitempty"`
}

// Profile is a named viewer.
type Profile struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Settings  Settings  `json:"settings"`
}

// Stats summarizes a profile's watch history.
type Stats struct {
	TotalWatched int        `json:"total_watched"`
	TotalTime    float64    `json:"total_time"` // seconds, sum of positions
	Completed    int        `json:"completed"`
	LastWatched  *time.Time `json:"last_watched,omitempty"`
	Movies       int        `json:"movies"`
	Episodes     int        `json:"episodes"`
}

// KV is the subset of the local store used for profiles.
type KV interface {
	Get(ctx context.Context, namespace, key string, v any) error
	Put(ctx context.Context, namespace, key string, v any) error
	List(ctx context.Context, namespace string) ([]localstore.Record, error)
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) (int64, error)
}

// Publisher receives profile events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Manager creates, selects and deletes profiles.
type Manager struct {
	kv     KV
	bus    Publisher
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a profile manager over kv.
func NewManager(kv KV, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		kv:     kv,
		now:    time.Now,
		logger: logger.With("component", "profile"),
	}
}

// WithPublisher sets the bus that receives profile.switched events.
func (m *Manager) WithPublisher(p Publisher) *Manager {
	m.bus = p
	return m
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create adds a profile and makes it current.
func (m *Manager) Create(ctx context.Context, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	if _, err := m.Get(ctx, name); err == nil {
		return nil, fmt.Errorf("create profile %q: %w", name, ErrExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := m.now().UTC()
	p := &Profile{
		Name:      name,
		CreatedAt: now,
		LastUsed:  now,
		Settings:  DefaultSettings(),
	}
	if err := m.kv.Put(ctx, localstore.NamespaceProfiles, name, p); err != nil {
		return nil, fmt.Errorf("create profile %q: %w", name, err)
	}
	m.logger.Info("profile created", "profile", name)

	return m.Use(ctx, name)
}

// Get returns the named profile.
func (m *Manager) Get(ctx context.Context, name string) (*Profile, error) {
	var p Profile
	if err := m.kv.Get(ctx, localstore.NamespaceProfiles, name, &p); err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile %q: %w", name, err)
	}
	return &p, nil
}

// List returns all profiles, most recently used first.
func (m *Manager) List(ctx context.Context) ([]Profile, error) {
	records, err := m.kv.List(ctx, localstore.NamespaceProfiles)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(records))
	for _, r := range records {
		var p Profile
		if err := r.Decode(&p); err != nil {
			m.logger.Warn("skipping unreadable profile", "key", r.Key, "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].LastUsed.After(profiles[j].LastUsed)
	})
	return profiles, nil
}

// Use makes the named profile current and touches its LastUsed time.
func (m *Manager) Use(ctx context.Context, name string) (*Profile, error) {
	p, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	previous, _ := m.currentName(ctx)

	p.LastUsed = m.now().UTC()
	if err := m.kv.Put(ctx, localstore.NamespaceProfiles, p.Name, p); err != nil {
		return nil, fmt.Errorf("use profile %q: %w", name, err)
	}
	if err := m.kv.Put(ctx, localstore.NamespaceSettings, currentKey, p.Name); err != nil {
		return nil, fmt.Errorf("use profile %q: %w", name, err)
	}

	if previous != p.Name {
		m.logger.Info("profile switched", "from", previous, "to", p.Name)
		m.publish(ctx, &events.ProfileSwitched{
			BaseEvent: events.NewBaseEvent(events.EventProfileSwitched, events.EntityProfile, p.Name),
			Previous:  previous,
			Current:   p.Name,
		})
	}
	return p, nil
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, e); err != nil {
		m.logger.Warn("publish failed", "type", e.EventType(), "error", err)
	}
}

func (m *Manager) currentName(ctx context.Context) (string, error) {
	var name string
	if err := m.kv.Get(ctx, localstore.NamespaceSettings, currentKey, &name); err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return "", ErrNoCurrent
		}
		return "", err
	}
	return name, nil
}

// Current returns the selected profile. A selection pointing at a profile that
// no longer exists is cleared.
func (m *Manager) Current(ctx context.Context) (*Profile, error) {
	name, err := m.currentName(ctx)
	if err != nil {
		return nil, err
	}

	p, err := m.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		m.logger.Warn("current profile no longer exists", "profile", name)
		if err := m.kv.Delete(ctx, localstore.NamespaceSettings, currentKey); err != nil {
			return nil, err
		}
		return nil, ErrNoCurrent
	}
	return p, err
}

// Delete removes the profile and its watch history. If it was current, no
// profile is current afterwards.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if _, err := m.Get(ctx, name); err != nil {
		return err
	}

	current, _ := m.currentName(ctx)

	if err := m.kv.Delete(ctx, localstore.NamespaceProfiles, name); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	n, err := m.kv.DeleteNamespace(ctx, localstore.ProgressNamespace(name))
	if err != nil {
		return fmt.Errorf("delete history of %q: %w", name, err)
	}
	if current == name {
		if err := m.kv.Delete(ctx, localstore.NamespaceSettings, currentKey); err != nil {
			return fmt.Errorf("clear current profile: %w", err)
		}
	}

	m.logger.Info("profile deleted", "profile", name, "records", n)
	return nil
}

// UpdateSettings merges upd into the profile's settings.
func (m *Manager) UpdateSettings(ctx context.Context, name string, upd SettingsUpdate) (*Profile, error) {
	p, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	s := p.Settings
	if upd.AutoResume != nil {
		s.AutoResume = *upd.AutoResume
	}
	if upd.DefaultVolume != nil {
		s.DefaultVolume = *upd.DefaultVolume
	}
	if upd.PlaybackSpeed != nil {
		s.PlaybackSpeed = *upd.PlaybackSpeed
	}
	if s.DefaultVolume < 0 || s.DefaultVolume > 1 {
		return nil, fmt.Errorf("%w: default_volume must be between 0 and 1", ErrInvalidSettings)
	}
	if s.PlaybackSpeed <= 0 {
		return nil, fmt.Errorf("%w: playback_speed must be positive", ErrInvalidSettings)
	}

	p.Settings = s
	if err := m.kv.Put(ctx, localstore.NamespaceProfiles, p.Name, p); err != nil {
		return nil, fmt.Errorf("update profile %q: %w", name, err)
	}
	return p, nil
}

// Stats summarizes the stored watch history of the named profile.
func (m *Manager) Stats(ctx context.Context, name string) (*Stats, error) {
	if _, err := m.Get(ctx, name); err != nil {
		return nil, err
	}

	records, err := m.kv.List(ctx, localstore.ProgressNamespace(name))
	if err != nil {
		return nil, fmt.Errorf("stats for %q: %w", name, err)
	}

	stats := &Stats{}
	var latest int64
	for _, r := range records {
		var p library.WatchProgress
		if err := r.Decode(&p); err != nil {
			continue
		}
		stats.TotalWatched++
		stats.TotalTime += p.Position
		if p.Completed {
			stats.Completed++
		}
		switch p.MediaType {
		case library.MediaMovie:
			stats.Movies++
		case library.MediaEpisode:
			stats.Episodes++
		}
		if p.Timestamp > latest {
			latest = p.Timestamp
		}
	}
	if latest > 0 {
		t := time.UnixMilli(latest).UTC()
		stats.LastWatched = &t
	}
	return stats, nil
}
