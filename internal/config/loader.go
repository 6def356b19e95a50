package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; learner state will be held in memory and lost on restart")
	}
	if cfg.Speech.APIKey == "" {
		slog.Warn("speech.api_key is empty; server-side speech checking will be unavailable")
	}

	if cfg.Session.HintAfterFailures < 0 {
		errs = append(errs, fmt.Errorf("session.hint_after_failures %d must not be negative", cfg.Session.HintAfterFailures))
	}
	if cfg.TimeAttack.RoundDuration < 0 {
		errs = append(errs, fmt.Errorf("time_attack.round_duration %s must not be negative", cfg.TimeAttack.RoundDuration))
	}
	if cfg.TimeAttack.ExtensionPerHit < 0 {
		errs = append(errs, fmt.Errorf("time_attack.extension_per_hit %s must not be negative", cfg.TimeAttack.ExtensionPerHit))
	}
	if cfg.TimeAttack.OpponentRate < 0 {
		errs = append(errs, fmt.Errorf("time_attack.opponent_rate %d must not be negative", cfg.TimeAttack.OpponentRate))
	}
	if cfg.Auth.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("auth.session_ttl %s must not be negative", cfg.Auth.SessionTTL))
	}

	return errors.Join(errs...)
}
