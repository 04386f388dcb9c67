package mongodb

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds MongoDB-specific configuration.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type Params struct {
	// AuthSource is the database credentials are checked against.
	AuthSource string `mapstructure:"auth_source"`

	// Timeout bounds every operation ("10s", "500ms"); 0 leaves the driver default.
	Timeout time.Duration `mapstructure:"timeout"`

	// ReplicaSet names the replica set to join, if any.
	ReplicaSet string `mapstructure:"replica_set"`

	// AppName is reported to the server in the connection handshake.
	AppName string `mapstructure:"app_name"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{AuthSource: "admin", AppName: "leapmigrate"}
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
		return p, fmt.Errorf("invalid mongodb params: %w", err)
	}
	if p.Timeout < 0 {
		return p, fmt.Errorf("invalid mongodb params: timeout must not be negative")
	}
	if p.AuthSource == "" {
		return p, fmt.Errorf("invalid mongodb params: auth_source must not be empty")
	}
	return p, nil
}
