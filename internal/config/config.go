// Package config provides the configuration schema and loader for the
// Vocalis server.
package config

import "time"

// LogLevel controls log verbosity for the Vocalis server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Vocalis.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Speech     SpeechConfig     `yaml:"speech"`
	Session    SessionConfig    `yaml:"session"`
	TimeAttack TimeAttackConfig `yaml:"time_attack"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ServerConfig holds network and logging settings for the Vocalis server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DatabaseConfig selects where learner state is persisted. An empty DSN
// runs the server on the in-memory store, which loses all state on restart.
type DatabaseConfig struct {
	// PostgresDSN is the connection string for the Postgres store.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SpeechConfig configures the Deepgram recognizer behind the speech-check
// endpoint.
type SpeechConfig struct {
	// APIKey is the Deepgram API key. When empty, speech checking is
	// disabled and the endpoint reports it as such.
	APIKey string `yaml:"api_key"`

	// Model selects the Deepgram model (e.g., "nova-3").
	Model string `yaml:"model"`

	// Language is the BCP-47 recognition language (e.g., "en").
	Language string `yaml:"language"`
}

// SessionConfig tunes the guided practice session.
type SessionConfig struct {
	// HintAfterFailures is how many consecutive failed attempts at a word
	// reveal the hint affordance. Zero means the built-in default of 2.
	HintAfterFailures int `yaml:"hint_after_failures"`
}

// TimeAttackConfig tunes the Time-Attack round engine. Zero values fall
// back to the built-in defaults.
type TimeAttackConfig struct {
	// RoundDuration is the base round length (default 60s).
	RoundDuration time.Duration `yaml:"round_duration"`

	// ExtensionPerHit is the time added per correct answer (default 2s).
	ExtensionPerHit time.Duration `yaml:"extension_per_hit"`

	// OpponentRate is the opponent's points per second (default 15).
	OpponentRate int `yaml:"opponent_rate"`
}

// AuthConfig tunes account sessions.
type AuthConfig struct {
	// SessionTTL is how long a bearer token stays valid without renewal
	// (default 3h).
	SessionTTL time.Duration `yaml:"session_ttl"`
}
