package resilience

import (
	"fmt"
	"time"
)

// CircuitBreakerConfig guards one upstream. A zero value is usable: unset
// fields fall back to 5 consecutive failures, a 30s open window and a single
// half-open probe.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// Validate rejects explicitly configured values the breaker cannot honor.
// Zero values are allowed and mean "use the default".
func (c CircuitBreakerConfig) Validate() error {
	if c.FailureThreshold < 0 {
		return fmt.Errorf("circuit failure threshold must be >= 1, got %d", c.FailureThreshold)
	}
	if c.OpenTimeout < 0 {
		return fmt.Errorf("circuit open timeout must be > 0, got %s", c.OpenTimeout)
	}
	if c.HalfOpenMaxReq < 0 {
		return fmt.Errorf("circuit half-open probes must be >= 1, got %d", c.HalfOpenMaxReq)
	}
	return nil
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = 1
	}
	return c
}

// LogFields renders the effective settings as logger key/value pairs.
func (c CircuitBreakerConfig) LogFields() []any {
	eff := c.withDefaults()
	return []any{
		"circuit_enabled", c.Enabled,
		"circuit_failure_threshold", eff.FailureThreshold,
		"circuit_open_timeout", eff.OpenTimeout,
		"circuit_half_open_max_req", eff.HalfOpenMaxReq,
	}
}
