package core

import (
	"fmt"
	"strings"
)

// Canonical adapter names.
const (
	AdapterCassandra = "cassandra"
	AdapterMongoDB   = "mongodb"
	AdapterSQLite    = "sqlite"
)

// adapterAliases maps accepted spellings to canonical adapter names.
// The empty name resolves to the native wide-column driver.
var adapterAliases = map[string]string{
	"":                 AdapterCassandra,
	"cassandra-driver": AdapterCassandra,
	"cql":              AdapterCassandra,
	"mongo":            AdapterMongoDB,
	"sqlite3":          AdapterSQLite,
	"local":            AdapterSQLite,
}

// ConnectionConfig holds the parameters for connecting to a store.
// It is created once per run and treated as immutable afterwards.
type ConnectionConfig struct {
	Adapter  string `koanf:"adapter"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"` // 0 means driver default
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// ForceDrop requests a (confirmed) drop of the database before processing.
	ForceDrop bool `koanf:"force"`

	// Options contains additional driver-specific string options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration decoded by each adapter
	Params map[string]any `koanf:"params"`
}

// Valid reports whether host and database are both present.
func (c ConnectionConfig) Valid() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Database) != ""
}

// Validate returns a *ConfigurationError naming every missing required field.
func (c ConnectionConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(c.Database) == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Adapter: c.AdapterName(), Missing: missing}
	}
	return nil
}

// AdapterName returns the canonical adapter name for this configuration.
func (c ConnectionConfig) AdapterName() string {
	return CanonicalAdapter(c.Adapter)
}

// ConnectionString renders adapter://host[:port]. Credentials are never included.
func (c ConnectionConfig) ConnectionString() string {
	s := fmt.Sprintf("%s://%s", c.AdapterName(), c.Host)
	if c.Port != 0 {
		s += fmt.Sprintf(":%d", c.Port)
	}
	return s
}

// Option returns a driver option or def when it is unset.
func (c ConnectionConfig) Option(name, def string) string {
	if v, ok := c.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// CanonicalAdapter normalises an adapter name.
func CanonicalAdapter(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := adapterAliases[n]; ok {
		return canonical
	}
	return n
}
