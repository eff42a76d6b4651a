package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvPrefix  = "CHAMPION_"
	EnvConfig  = "CHAMPION_CONFIG"
	EnvDotFile = "CHAMPION_DOTENV"
)

// nested lists key prefixes whose first underscore is a path separator, so
// CHAMPION_WEIGHTS_MESSAGES maps to weights.messages.
var nested = []string{"weights_", "metrics_"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CHAMPION_CONFIG is set
//  3. env (prefix CHAMPION_), after pre-loading a .env file
func Load(_ context.Context) (*Config, error) {
	loadDotEnv()

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CHAMPION_MAX_LEADERBOARD_LIMIT to max_leaderboard_limit.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, p := range nested {
		if strings.HasPrefix(s, p) {
			return strings.TrimSuffix(p, "_") + "." + strings.TrimPrefix(s, p)
		}
	}
	return s
}

// loadDotEnv pre-loads CHAMPION_DOTENV or ./.env. Existing variables win.
func loadDotEnv() {
	path := os.Getenv(EnvDotFile)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}
