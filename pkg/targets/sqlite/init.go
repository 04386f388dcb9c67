package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

func init() {
	target.Register(core.AdapterSQLite, func(cfg core.ConnectionConfig, logger *slog.Logger) (core.Store, error) {
		return New(cfg, logger), nil
	})
}
