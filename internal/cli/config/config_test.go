package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapmigrate/pkg/sources/postgres"
	_ "github.com/leapstack-labs/leapmigrate/pkg/sources/sqlite"
	_ "github.com/leapstack-labs/leapmigrate/pkg/targets/cassandra"
	_ "github.com/leapstack-labs/leapmigrate/pkg/targets/mongodb"
)

const sampleConfig = `sql_connection:
  adapter: postgres
  host: db.internal
  port: 5432
  database: shop
  username: ${TEST_LEAPMIGRATE_USER}
  password: ${TEST_LEAPMIGRATE_PASSWORD}
no_sql_connection:
  adapter: cassandra
  host: cassandra.internal
  database: shop
  force: true
  params:
    replication_factor: 3
translation: mappings/translation.yaml
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapmigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("translation", "", "translation file")
	flags.String("ledger", "", "ledger database")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

// TestLoadConfig_Defaults tests loading with no config file present.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTranslationFile, cfg.Translation)
	assert.Equal(t, DefaultLedgerFile, cfg.Ledger)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

// TestLoadConfig_File tests decoding both connection blocks.
func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	t.Setenv("TEST_LEAPMIGRATE_USER", "migrator")
	t.Setenv("TEST_LEAPMIGRATE_PASSWORD", "s3cret")

	path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())

	src := cfg.SQLConnection
	assert.Equal(t, "postgres", src.Adapter)
	assert.Equal(t, "db.internal", src.Host)
	assert.Equal(t, 5432, src.Port)
	assert.Equal(t, "migrator", src.Username)
	assert.Equal(t, "s3cret", src.Password)

	dst := cfg.NoSQLConnection
	assert.Equal(t, "cassandra", dst.Adapter)
	assert.True(t, dst.ForceDrop)
	assert.EqualValues(t, 3, dst.Params["replication_factor"])

	assert.Equal(t, filepath.Join(filepath.Dir(path), "mappings", "translation.yaml"), cfg.Translation)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultLedgerFile), cfg.Ledger)

	require.NoError(t, cfg.Validate())
}

// TestLoadConfig_DiscoversFile tests that leapmigrate.yaml in the working
// directory is used without --config.
func TestLoadConfig_DiscoversFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leapmigrate.yml"), []byte("verbose: true\n"), 0o600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "leapmigrate.yml", GetConfigFileUsed())
}

// TestLoadConfig_MissingFile tests an explicit config path that does not exist.
func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

// TestLoadConfig_FlagPrecedence tests that flags override the config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "translation: from-file.yaml\nledger: from-file.db\n")

	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{"--translation", "from-flag.yaml", "-v"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.yaml", cfg.Translation, "flag should override file, unresolved")
	assert.Equal(t, filepath.Join(filepath.Dir(path), "from-file.db"), cfg.Ledger, "unset flag keeps file value")
	assert.True(t, cfg.Verbose)
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override the config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	t.Setenv("LEAPMIGRATE_NO_SQL_CONNECTION__HOST", "env-host")
	t.Setenv("LEAPMIGRATE_NO_SQL_CONNECTION__PORT", "9142")
	t.Setenv("LEAPMIGRATE_LEDGER", "env.db")

	path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.NoSQLConnection.Host)
	assert.Equal(t, 9142, cfg.NoSQLConnection.Port)
	assert.Equal(t, "shop", cfg.NoSQLConnection.Database, "sibling keys from file survive")
	assert.Equal(t, "env.db", cfg.Ledger)
}

// TestLoadConfig_FlagOverEnv tests that flags override env vars, and that an
// unset flag leaves the env value in place.
func TestLoadConfig_FlagOverEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("LEAPMIGRATE_TRANSLATION", "env.yaml")
	t.Setenv("LEAPMIGRATE_LEDGER", "env.db")

	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{"--ledger", "flag.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", cfg.Translation)
	assert.Equal(t, "flag.db", cfg.Ledger)
}

// TestLoadConfig_MemoryLedger tests that an in-memory ledger path is kept.
func TestLoadConfig_MemoryLedger(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "ledger: \":memory:\"\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Ledger)
}

// TestExpandEnvVars tests the expandEnvVars function.
func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "variable in host", input: "db-${TEST_VAR_ONE}.internal", expected: "db-value_one.internal"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "no_sql_connection.host", envKey("LEAPMIGRATE_NO_SQL_CONNECTION__HOST"))
	assert.Equal(t, "sql_connection.params.threads", envKey("LEAPMIGRATE_SQL_CONNECTION__PARAMS__THREADS"))
	assert.Equal(t, "verbose", envKey("LEAPMIGRATE_VERBOSE"))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SQLConnection:   sqlConn("postgres"),
			NoSQLConnection: sqlConn("cassandra"),
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty target adapter selects cassandra", mutate: func(c *Config) { c.NoSQLConnection.Adapter = "" }},
		{name: "mongo alias", mutate: func(c *Config) { c.NoSQLConnection.Adapter = "mongo" }},
		{
			name:      "missing source host",
			mutate:    func(c *Config) { c.SQLConnection.Host = "" },
			errSubstr: "sql_connection: invalid configuration for postgres: missing host",
		},
		{
			name:      "missing source adapter",
			mutate:    func(c *Config) { c.SQLConnection.Adapter = "" },
			errSubstr: "sql_connection: adapter is required",
		},
		{
			name:      "unknown source adapter",
			mutate:    func(c *Config) { c.SQLConnection.Adapter = "oracle" },
			errSubstr: "sql_connection.adapter",
		},
		{
			name:      "missing target database",
			mutate:    func(c *Config) { c.NoSQLConnection.Database = " " },
			errSubstr: "no_sql_connection: invalid configuration for cassandra: missing database",
		},
		{
			name:      "unknown target adapter",
			mutate:    func(c *Config) { c.NoSQLConnection.Adapter = "couchdb" },
			errSubstr: "no_sql_connection.adapter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestContextAccessors(t *testing.T) {
	ResetConfig()
	ctx := context.Background()

	assert.Equal(t, Default(), GetConfig(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Translation: "t.yaml"}
	assert.Same(t, cfg, GetConfig(WithConfig(ctx, cfg)))
}

func sqlConn(adapter string) core.ConnectionConfig {
	return core.ConnectionConfig{Adapter: adapter, Host: "localhost", Database: "shop"}
}
