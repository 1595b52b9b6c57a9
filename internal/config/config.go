// Package config loads the optional <root>/config.yaml that tunes daemon
// and client behavior. A missing file is not an error — defaults apply.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable knobs named throughout spec.md.
// ClientPendingCapBytes is loaded but not applied: every client uses
// clientconn.DefaultPendingCap.
type Config struct {
	RingSizeBytes         int    `yaml:"ring_size_bytes"`
	TickIntervalMS        int    `yaml:"tick_interval_ms"`
	HealthTimeoutSeconds  int    `yaml:"health_timeout_seconds"`
	ClientPendingCapBytes int    `yaml:"client_pending_cap_bytes"`
	DefaultShell          string `yaml:"default_shell"`
}

// Defaults match the values named in spec.md §4.4, §4.6, §4.7.
func Defaults() Config {
	return Config{
		RingSizeBytes:         2 * 1024 * 1024,
		TickIntervalMS:        10,
		HealthTimeoutSeconds:  300,
		ClientPendingCapBytes: 4 * 1024 * 1024,
		DefaultShell:          "/bin/sh",
	}
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// Load reads <root>/config.yaml, overlaying it on Defaults(). A missing
// file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}
