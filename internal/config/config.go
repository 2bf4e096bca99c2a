// Package config loads runner configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the headless match runner. Empty addresses
// disable the corresponding integration.
type Config struct {
	// Seed drives the whole simulation. 0 means derive one from crypto/rand.
	Seed uint64 `env:"MATCH_SEED"`

	// AgentCount is the roster size, one imposter included.
	AgentCount int `env:"AGENT_COUNT" envDefault:"10"`

	// TickRate paces the loop in simulated ticks per wall-clock second.
	// 0 runs the match as fast as it will go.
	TickRate int `env:"TICK_RATE" envDefault:"30"`

	// ControllerTimeoutMS bounds a single controller decision in
	// milliseconds. 0 disables the guard.
	ControllerTimeoutMS int `env:"CONTROLLER_TIMEOUT_MS" envDefault:"50"`

	// ListenAddr serves the spectator websocket feed. Empty disables it.
	ListenAddr string `env:"LISTEN_ADDR"`

	// DatabasePath is the sqlite file for event and outcome persistence.
	// Empty disables persistence.
	DatabasePath string `env:"DATABASE_PATH" envDefault:"matches.db"`

	// SettlementKey signs the post-match settlement token. Empty disables
	// settlement signing.
	SettlementKey string `env:"SETTLEMENT_KEY"`

	// RedisAddr enables live event publishing over redis pub/sub.
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"monaddotsus.events"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AgentCount < 2 {
		return Config{}, fmt.Errorf("AGENT_COUNT must be at least 2, got %d", cfg.AgentCount)
	}
	if cfg.TickRate < 0 {
		return Config{}, fmt.Errorf("TICK_RATE must not be negative, got %d", cfg.TickRate)
	}
	if cfg.ControllerTimeoutMS < 0 {
		return Config{}, fmt.Errorf("CONTROLLER_TIMEOUT_MS must not be negative, got %d", cfg.ControllerTimeoutMS)
	}
	return cfg, nil
}
