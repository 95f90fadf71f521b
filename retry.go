package vitrine

import "time"

// RetryConfig holds the rate-limit retry policy of a model call.
// Use DefaultRetryConfig() for the studio defaults or create custom configs.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default: 2).
	MaxRetries int

	// InitialDelay is the base delay before the first retry (default: 1s).
	InitialDelay time.Duration

	// MaxDelay caps the exponential part of the delay (default: 30s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter is the upper bound of a random delay added to every wait (default: 1s).
	Jitter time.Duration

	// AttemptTimeout bounds each individual attempt (default: 60s).
	AttemptTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
//   - 2 retries (3 attempts)
//   - 1 second initial delay
//   - 30 second max delay
//   - 2x exponential multiplier
//   - up to 1 second of jitter
//   - 60 second per-attempt timeout
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		Jitter:         1 * time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// DisabledRetryConfig returns a configuration that disables retries (single attempt).
func DisabledRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 0
	return cfg
}
