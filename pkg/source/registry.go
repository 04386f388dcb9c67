package source

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Reader)
)

// aliases maps accepted spellings to registered reader names.
var aliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"sqlite3":    "sqlite",
}

// Register adds a reader factory to the registry.
// Called by reader implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Reader) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a reader factory by name.
func Get(name string) (func(*slog.Logger) Reader, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[canonical(name)]
	return f, ok
}

func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// NewReader creates a new reader instance based on config adapter.
// The logger parameter is passed to the reader constructor (nil uses discard logger).
func NewReader(cfg core.ConnectionConfig, logger *slog.Logger) (Reader, error) {
	if strings.TrimSpace(cfg.Adapter) == "" {
		return nil, fmt.Errorf("source adapter not specified")
	}

	factory, ok := Get(cfg.Adapter)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Adapter,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns all registered reader names (sorted).
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

// IsRegistered checks if a reader is registered.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when an unknown source adapter is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown source adapter %q\nAvailable adapters: %v\nHint: Check sql_connection.adapter in leapmigrate.yaml", e.Type, e.Available)
}
