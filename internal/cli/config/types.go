// Package config provides configuration management for the leapmigrate CLI.
//
// The two connection blocks reuse core.ConnectionConfig so that the loaded
// values go straight to the source and target registries.
package config

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config holds all CLI configuration options.
type Config struct {
	// SQLConnection is the relational source.
	SQLConnection core.ConnectionConfig `koanf:"sql_connection"`

	// NoSQLConnection is the target store.
	NoSQLConnection core.ConnectionConfig `koanf:"no_sql_connection"`

	// Translation is the path of the translation file.
	Translation string `koanf:"translation"`

	// Ledger is the path of the run ledger database.
	Ledger string `koanf:"ledger"`

	Verbose bool `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultTranslationFile = "translation.yaml"
	DefaultLedgerFile      = ".leapmigrate/ledger.db"
	EnvPrefix              = "LEAPMIGRATE_"
)

// Default returns a Config holding only default values.
func Default() *Config {
	return &Config{
		Translation: DefaultTranslationFile,
		Ledger:      DefaultLedgerFile,
	}
}
