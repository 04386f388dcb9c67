// Package core defines the shared language of leapmigrate.
//
// This package contains:
//   - Connection configuration (ConnectionConfig)
//   - Schema input (TableDefinition, ColumnDefinition, ColumnType)
//   - Row values (Row, Field, Record)
//   - The Store contract implemented by every target variant
//   - Error kinds (ConfigurationError, ConnectionError, DDLError, RowOperationError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
