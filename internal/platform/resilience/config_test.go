package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreakerConfig_Validate(t *testing.T) {
	if err := (CircuitBreakerConfig{}).Validate(); err != nil {
		t.Fatalf("zero config should fall back to defaults: %v", err)
	}

	bad := []CircuitBreakerConfig{
		{FailureThreshold: -1},
		{OpenTimeout: -time.Second},
		{HalfOpenMaxReq: -2},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", cfg)
		}
	}
}

func TestCircuitBreakerConfig_LogFieldsShowEffectiveValues(t *testing.T) {
	fields := CircuitBreakerConfig{Enabled: true, FailureThreshold: 3}.LogFields()
	got := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		got[fields[i].(string)] = fields[i+1]
	}

	if got["circuit_enabled"] != true {
		t.Fatalf("unexpected enabled field: %v", got["circuit_enabled"])
	}
	if got["circuit_failure_threshold"] != 3 {
		t.Fatalf("unexpected threshold: %v", got["circuit_failure_threshold"])
	}
	if got["circuit_open_timeout"] != 30*time.Second {
		t.Fatalf("unexpected open timeout: %v", got["circuit_open_timeout"])
	}
	if got["circuit_half_open_max_req"] != 1 {
		t.Fatalf("unexpected half-open probes: %v", got["circuit_half_open_max_req"])
	}
}
