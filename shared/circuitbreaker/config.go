package circuitbreaker

import "time"

// Config holds circuit breaker configuration
type Config struct {
	FailureThreshold uint32        // Consecutive failures that open the breaker
	RecoveryTimeout  time.Duration // Time spent open before a half-open probe
	CallTimeout      time.Duration // Upper bound for a single attempt
}

// DefaultConfig mirrors the downstream HTTP defaults: 5 failures, 30s open, 10s per call
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		CallTimeout:      10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = def.RecoveryTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	return c
}
