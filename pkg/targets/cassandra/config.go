package cassandra

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gocql/gocql"
)

// Params holds Cassandra-specific configuration.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type Params struct {
	// ReplicationFactor of a keyspace created by Connect.
	ReplicationFactor int `mapstructure:"replication_factor"`

	// Consistency level name (e.g. "one", "quorum", "local_quorum").
	Consistency string `mapstructure:"consistency"`

	// Timeout for connecting and for each statement ("10s", "500ms").
	Timeout time.Duration `mapstructure:"timeout"`

	// ProtoVersion pins the native protocol version; 0 negotiates.
	ProtoVersion int `mapstructure:"proto_version"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		ReplicationFactor: 3,
		Consistency:       "quorum",
		Timeout:           10 * time.Second,
	}
}

// ParseParams decodes raw over the defaults.
func ParseParams(raw map[string]any) (Params, error) {
	p := DefaultParams()
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &p,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, fmt.Errorf("invalid cassandra params: %w", err)
	}
	if p.ReplicationFactor < 1 {
		return p, fmt.Errorf("invalid cassandra params: replication_factor must be at least 1")
	}
	if _, err := p.consistency(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Params) consistency() (gocql.Consistency, error) {
	c, err := gocql.ParseConsistencyWrapper(strings.ToUpper(p.Consistency))
	if err != nil {
		return c, fmt.Errorf("invalid cassandra params: unknown consistency %q", p.Consistency)
	}
	return c, nil
}
