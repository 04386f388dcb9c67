package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "spatial", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2", "huggingface"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", "service_account", etc.
	Provider string `mapstructure:"provider"`

	// Region for S3 buckets
	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	// KeyID for explicit credentials (prefer credential_chain)
	KeyID string `mapstructure:"key_id,omitempty"`

	// Secret for explicit credentials (prefer credential_chain)
	Secret string `mapstructure:"secret,omitempty"`

	// Endpoint for S3-compatible services (MinIO, etc.)
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	// UseSSL: whether to use HTTPS (default true)
	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// parseParams decodes raw into Params. Nil or empty input yields zero Params.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement, one option per line.
func buildCreateSecretSQL(cfg SecretConfig) string {
	opts := []string{"TYPE " + cfg.Type}
	if cfg.Provider != "" {
		opts = append(opts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		opts = append(opts, fmt.Sprintf("REGION '%s'", cfg.Region))
	}
	if scopes := scopeList(cfg.Scope); len(scopes) == 1 {
		opts = append(opts, fmt.Sprintf("SCOPE '%s'", scopes[0]))
	} else if len(scopes) > 1 {
		quoted := make([]string, len(scopes))
		for i, s := range scopes {
			quoted[i] = "'" + s + "'"
		}
		opts = append(opts, "SCOPE ("+strings.Join(quoted, ", ")+")")
	}
	if cfg.KeyID != "" {
		opts = append(opts, fmt.Sprintf("KEY_ID '%s'", cfg.KeyID))
	}
	if cfg.Secret != "" {
		opts = append(opts, fmt.Sprintf("SECRET '%s'", cfg.Secret))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, fmt.Sprintf("ENDPOINT '%s'", cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		opts = append(opts, fmt.Sprintf("URL_STYLE '%s'", cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

func scopeList(scope any) []string {
	switch s := scope.(type) {
	case nil:
		return nil
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, v := range s {
			out = append(out, fmt.Sprint(v))
		}
		return out
	default:
		return []string{fmt.Sprint(s)}
	}
}
