// Package config is the TOML-backed configuration surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration surface: tick cadence, day/night
// windows, LLM client tuning, memory retention caps, and event-bus
// history.
type Config struct {
	TickIntervalSeconds float64          `toml:"tick_interval_seconds"`
	DayStartHour        float64          `toml:"day_start_hour"`
	DayEndHour          float64          `toml:"day_end_hour"`
	EventHistoryCap     int              `toml:"event_history_cap"`
	UseLLM              bool             `toml:"use_llm"`
	LLM                 LLMConfig        `toml:"llm"`
	MemoryCaps          MemoryCapsConfig `toml:"memory_caps"`
}

// LLMConfig tunes the LLM client's model and cache.
type LLMConfig struct {
	Model           string `toml:"model"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	MaxCallsPerMin  int    `toml:"max_calls_per_minute"`
}

// MemoryCapsConfig sets per-tier retention caps.
type MemoryCapsConfig struct {
	Working  int `toml:"working"`
	Recent   int `toml:"recent"`
	Longterm int `toml:"longterm"`
}

// Default returns the out-of-the-box configuration.
func Default() Config {
	return Config{
		TickIntervalSeconds: 30.0,
		DayStartHour:        6.0,
		DayEndHour:          22.0,
		EventHistoryCap:     1000,
		UseLLM:              false,
		LLM: LLMConfig{
			Model:           "claude-3-5-haiku-latest",
			CacheSize:       1000,
			CacheTTLSeconds: 3600,
			MaxCallsPerMin:  30,
		},
		MemoryCaps: MemoryCapsConfig{
			Working:  10,
			Recent:   7,
			Longterm: 50,
		},
	}
}

// Load reads config from path, falling back to defaults if the file does
// not exist. An existing file that fails to parse or validate is fatal to
// startup.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate rejects configuration values the rest of the system cannot
// safely run with.
func (c Config) Validate() error {
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("config: tick_interval_seconds must be > 0")
	}
	if c.DayStartHour < 0 || c.DayStartHour >= 24 || c.DayEndHour < 0 || c.DayEndHour >= 24 {
		return fmt.Errorf("config: day_start_hour/day_end_hour must be in [0,24)")
	}
	if c.EventHistoryCap <= 0 {
		return fmt.Errorf("config: event_history_cap must be > 0")
	}
	if c.MemoryCaps.Working <= 0 || c.MemoryCaps.Recent <= 0 || c.MemoryCaps.Longterm <= 0 {
		return fmt.Errorf("config: memory_caps values must be > 0")
	}
	return nil
}
