package config

import (
	"strings"
	"time"
)

// HoldConfig configures seat leases and selection sessions.
type HoldConfig struct {
	Backend        string        // HOLD_BACKEND: "memory", "redis" or "mysql"
	TTL            time.Duration // HOLD_TTL
	SweepEvery     time.Duration // HOLD_SWEEP_EVERY
	Prefix         string        // HOLD_PREFIX: Redis key prefix
	SessionIdleTTL time.Duration // SESSION_IDLE_TTL
}

// LoadHoldConfig reads the hold variables.  The default lease lasts five
// minutes.
func LoadHoldConfig() HoldConfig {
	c := HoldConfig{
		Backend:        strings.ToLower(envStr("HOLD_BACKEND", "redis")),
		TTL:            envDur("HOLD_TTL", 5*time.Minute),
		SweepEvery:     envDur("HOLD_SWEEP_EVERY", time.Second),
		Prefix:         envStr("HOLD_PREFIX", "hold"),
		SessionIdleTTL: envDur("SESSION_IDLE_TTL", 30*time.Minute),
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = time.Second
	}
	return c
}
