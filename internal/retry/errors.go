package retry

import (
	"errors"
	"net/http"
	"time"
)

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// retryAfterer is implemented by errors that carry a server retry hint.
type retryAfterer interface {
	RetryAfter() time.Duration
}

// IsRateLimited reports whether err is an HTTP 429 response.
// Rate limits are the only failures worth retrying against the same model:
// a missing model is handled by fallback, everything else is surfaced.
func IsRateLimited(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests
}

// retryAfterFromError extracts the server retry hint, or 0.
func retryAfterFromError(err error) time.Duration {
	var ra retryAfterer
	if errors.As(err, &ra) {
		return ra.RetryAfter()
	}
	return 0
}

// effectiveDelay returns the delay to use, honoring the server hint if larger
// but never beyond limit when limit is positive.
func effectiveDelay(configured time.Duration, err error, limit time.Duration) time.Duration {
	server := retryAfterFromError(err)
	if limit > 0 && server > limit {
		server = limit
	}
	if server > configured {
		return server
	}
	return configured
}
