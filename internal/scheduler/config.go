package scheduler

import (
	"os"
	"strconv"
	"time"
)

// Config controls the payout sweep interval and batch size.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	Enabled     bool
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   50,
		Enabled:     true,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}

func ProvideConfig() Config {
	cfg := DefaultConfig()
	if raw := os.Getenv("PAYOUT_SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RunInterval = d
		}
	}
	if raw := os.Getenv("PAYOUT_SWEEP_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	if raw := os.Getenv("PAYOUT_SWEEP_ENABLED"); raw == "false" || raw == "0" {
		cfg.Enabled = false
	}
	return cfg
}
