package mongodb

import (
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

func init() {
	target.Register(core.AdapterMongoDB, func(cfg core.ConnectionConfig, logger *slog.Logger) (core.Store, error) {
		store, err := New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	})
}
