package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// ProviderConfig defines how to launch a vision classifier process.
type ProviderConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Config holds the tracker's runtime configuration. JSON file values come
// first; environment variables override them.
type Config struct {
	DBPath               string                    `json:"db_path" env:"BALLPOINT_DB_PATH"`
	ListenAddr           string                    `json:"listen_addr" env:"BALLPOINT_LISTEN_ADDR"`
	RateLimitPerMinute   int                       `json:"rate_limit_per_minute" env:"BALLPOINT_RATE_LIMIT_PER_MINUTE"`
	DebounceMillis       int                       `json:"debounce_millis" env:"BALLPOINT_DEBOUNCE_MILLIS"`
	IdleSessionMaxAgeSec int                       `json:"idle_session_max_age_sec" env:"BALLPOINT_IDLE_SESSION_MAX_AGE_SEC"`
	RetainAgeSec         int                       `json:"retain_age_sec" env:"BALLPOINT_RETAIN_AGE_SEC"`
	SweepIntervalSec     int                       `json:"sweep_interval_sec" env:"BALLPOINT_SWEEP_INTERVAL_SEC"`
	FeedbackCommand      string                    `json:"feedback_command" env:"BALLPOINT_FEEDBACK_COMMAND"`
	Providers            map[string]ProviderConfig `json:"providers"`
}

// Load reads a JSON config file, applies environment overrides and defaults,
// and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9560"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if c.DebounceMillis == 0 {
		c.DebounceMillis = 300
	}
	if c.IdleSessionMaxAgeSec == 0 {
		c.IdleSessionMaxAgeSec = 1800
	}
	if c.RetainAgeSec == 0 {
		c.RetainAgeSec = 3600
	}
	if c.SweepIntervalSec == 0 {
		c.SweepIntervalSec = 60
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, "rate_limit_per_minute must not be negative")
	}
	if c.DebounceMillis < 0 {
		problems = append(problems, "debounce_millis must not be negative")
	}
	for name, p := range c.Providers {
		if p.Command == "" {
			problems = append(problems, fmt.Sprintf("provider %q has no command", name))
		}
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
