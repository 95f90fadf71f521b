// Package retry runs a model call with exponential backoff on rate limits.
package retry

import (
	"math"
	"math/rand/v2"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts.
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the exponential part of the delay.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Jitter is the upper bound of a uniformly random delay added on top.
	Jitter time.Duration

	// AttemptTimeout bounds each attempt. Zero means no per-attempt bound.
	AttemptTimeout time.Duration
}

// FromRetryConfig converts the public policy into a Config.
func FromRetryConfig(rc vitrine.RetryConfig) Config {
	return Config{
		MaxAttempts:    rc.MaxRetries + 1,
		InitialDelay:   rc.InitialDelay,
		MaxDelay:       rc.MaxDelay,
		Multiplier:     rc.Multiplier,
		Jitter:         rc.Jitter,
		AttemptTimeout: rc.AttemptTimeout,
	}
}

// DefaultConfig returns the studio policy: 3 attempts, 1s doubling delay
// plus up to 1s of jitter, 60s per attempt.
func DefaultConfig() Config {
	return FromRetryConfig(vitrine.DefaultRetryConfig())
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return FromRetryConfig(vitrine.DisabledRetryConfig())
}

// Delay calculates the wait before retry number attempt (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) + random[0, jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	d := time.Duration(delay)
	if c.Jitter > 0 {
		d += rand.N(c.Jitter)
	}
	return d
}

// EventBuffer returns a channel large enough to hold every event of one
// Do call under c: at most a failure and a retrying or exhausted event per attempt.
func (c Config) EventBuffer() chan Event {
	return make(chan Event, 2*max(c.MaxAttempts, 1))
}
