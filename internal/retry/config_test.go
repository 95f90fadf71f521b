package retry

import (
	"testing"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Equal(t, time.Second, cfg.Jitter)
	assert.Equal(t, 60*time.Second, cfg.AttemptTimeout)
}

func TestDisabled(t *testing.T) {
	cfg := Disabled()
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.AttemptTimeout)
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(vitrine.RetryConfig{MaxRetries: 4, InitialDelay: time.Millisecond})
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Millisecond, cfg.InitialDelay)
}

func TestConfigDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0, // No jitter for deterministic test
	}

	assert.Equal(t, 100*time.Millisecond, cfg.Delay(0))
	assert.Equal(t, 200*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 400*time.Millisecond, cfg.Delay(2))
	assert.Equal(t, 800*time.Millisecond, cfg.Delay(3))
}

func TestConfigDelayMaxCap(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	// 1s * 2^10 = 1024s, but capped at 5s
	assert.Equal(t, 5*time.Second, cfg.Delay(10))
}

func TestConfigDelayNegativeAttempt(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, 100*time.Millisecond, cfg.Delay(-5))
}

func TestConfigDelayWithJitter(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       time.Second,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		delay := cfg.Delay(1)
		delays[delay] = true
		// 2s base plus up to 1s of jitter
		assert.GreaterOrEqual(t, delay, 2*time.Second)
		assert.Less(t, delay, 3*time.Second)
	}

	assert.Greater(t, len(delays), 1, "jitter should produce varying delays")
}
