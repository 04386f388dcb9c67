package config

import (
	"fmt"

	"github.com/leapstack-labs/leapmigrate/pkg/source"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// Validate checks both connection blocks.
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}
	return c.ValidateTarget()
}

// ValidateSource checks the sql_connection block and that its adapter is
// registered.
func (c *Config) ValidateSource() error {
	if err := c.SQLConnection.Validate(); err != nil {
		return fmt.Errorf("sql_connection: %w", err)
	}
	if c.SQLConnection.Adapter == "" {
		return fmt.Errorf("sql_connection: adapter is required\nHint: Set sql_connection.adapter to one of %v", source.ListAdapters())
	}
	if !source.IsRegistered(c.SQLConnection.Adapter) {
		return &source.UnknownAdapterError{Type: c.SQLConnection.Adapter, Available: source.ListAdapters()}
	}
	return nil
}

// ValidateTarget checks the no_sql_connection block and that its adapter is
// registered. An empty adapter selects cassandra.
func (c *Config) ValidateTarget() error {
	if err := c.NoSQLConnection.Validate(); err != nil {
		return fmt.Errorf("no_sql_connection: %w", err)
	}
	if !target.IsRegistered(c.NoSQLConnection.AdapterName()) {
		return &target.UnknownAdapterError{Type: c.NoSQLConnection.Adapter, Available: target.ListAdapters()}
	}
	return nil
}
