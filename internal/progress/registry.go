package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry hands out one Store per profile, loading each from the local
// store on first use.
type Registry struct {
	persister Persister
	opts      Options

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates a registry whose stores share persister and opts.
func NewRegistry(persister Persister, opts Options) *Registry {
	return &Registry{
		persister: persister,
		opts:      opts,
		stores:    make(map[string]*Store),
	}
}

// Store returns the store of profile, creating and loading it if needed.
func (r *Registry) Store(ctx context.Context, profile string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[profile]; ok {
		return s, nil
	}
	s := New(r.persister, profile, r.opts)
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("load progress for %s: %w", profile, err)
	}
	r.stores[profile] = s
	return s, nil
}

// Drop discards the store of profile and its persisted history. Used when a
// profile is deleted so a later profile with the same name starts empty.
func (r *Registry) Drop(ctx context.Context, profile string) error {
	r.mu.Lock()
	s, ok := r.stores[profile]
	delete(r.stores, profile)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Clear(ctx)
}

// Close flushes every store.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	stores := make([]*Store, 0, len(names))
	for _, name := range names {
		stores = append(stores, r.stores[name])
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Close(ctx)
	}
}
