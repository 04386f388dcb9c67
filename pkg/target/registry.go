package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// Factory creates an unconnected store for a configuration.
type Factory func(cfg core.ConnectionConfig, logger *slog.Logger) (core.Store, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a store factory to the registry.
// Called by target implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a store factory by canonical name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewStore validates cfg and creates an unconnected store for its adapter.
// The logger is passed to the store (nil uses a discard logger).
func NewStore(cfg core.ConnectionConfig, logger *slog.Logger) (core.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := cfg.AdapterName()
	factory, ok := Get(name)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Adapter,
			Available: ListAdapters(),
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(cfg, logger)
}

// ListAdapters returns all registered target names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a target is registered under its canonical name.
func IsRegistered(name string) bool {
	_, ok := Get(core.CanonicalAdapter(name))
	return ok
}

// UnknownAdapterError is returned when an unknown target adapter is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown target adapter %q\nAvailable adapters: %v\nHint: Check no_sql_connection.adapter in leapmigrate.yaml", e.Type, e.Available)
}

// WithStore creates and connects a store, runs fn, and always closes the
// store afterwards.
func WithStore(ctx context.Context, cfg core.ConnectionConfig, logger *slog.Logger, fn func(core.Store) error) (err error) {
	store, err := NewStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close store: %w", cerr))
		}
	}()

	if err := store.Connect(ctx); err != nil {
		return err
	}
	return fn(store)
}
