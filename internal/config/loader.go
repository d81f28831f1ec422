package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load builds configuration from an optional YAML overlay and the
// environment, environment taking precedence, then layers in the
// optional-field defaults for anything still unset. The env vars are the
// flat, uppercased field names from the external interfaces contract
// (VECTOR_DB_URL, EMBED_API_BASE, ...); yamlOverlay is raw file content
// and may be nil to skip it entirely.
func Load(yamlOverlay []byte) (*Config, error) {
	k := koanf.New(".")

	if len(yamlOverlay) > 0 {
		if err := k.Load(rawbytes.Provider(yamlOverlay), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading yaml overlay: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := *NewDefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
