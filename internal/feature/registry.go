package feature

import (
	"context"
	"fmt"
	"sort"
	"sync"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Factory constructs a feature manager. Construction may touch the
// repository (session stores, metadata files), hence the context.
type Factory func(ctx context.Context) (Manager, error)

// Registry maps feature names to factories and caches constructed managers
// for the process lifetime. Engines are expensive to build (config merge,
// state file reads), so each is constructed on first request only.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]Manager
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		cache:     make(map[string]Manager),
	}
}

// Register adds a factory under the given name, replacing any previous
// registration. Registration happens once at startup; replacement exists for
// tests.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.cache, name)
}

// Get returns the manager for the given feature, constructing and caching it
// on first request. Returns ErrFeatureNotFound for unknown names.
func (r *Registry) Get(ctx context.Context, name string) (Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.cache[name]; ok {
		return m, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("feature %q: %w", name, keelerrors.ErrFeatureNotFound)
	}

	m, err := factory(ctx)
	if err != nil {
		return nil, keelerrors.Wrapf(err, "activating feature %q", name)
	}
	r.cache[name] = m
	return m, nil
}

// Names returns the registered feature names, sorted for stable menus.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
