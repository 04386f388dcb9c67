package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/source"
)

// Import this package with a blank identifier to register the reader:
//
//	import _ "github.com/leapstack-labs/leapmigrate/pkg/sources/sqlite"
func init() {
	source.Register("sqlite", func(logger *slog.Logger) source.Reader { return New(logger) })
}
