package client

import (
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/internal/retry"
)

// EventType identifies the kind of event occurring during execution.
type EventType string

const (
	// EventRequestStart fires before a capability call begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after a call succeeds.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when a call fails for good.
	EventRequestError EventType = "request_error"

	// EventRetry fires for every retry event (forwarded from the retry loop).
	EventRetry EventType = "retry"

	// EventFallback fires when a missing model is swapped for its fallback.
	EventFallback EventType = "fallback"
)

// RetryEvent represents an observable occurrence during retry execution.
type RetryEvent = retry.Event

// RetryEventType identifies the kind of retry event.
type RetryEventType = retry.EventType

// Retry event type constants.
const (
	RetryEventAttemptFailed = retry.EventAttemptFailed
	RetryEventRetrying      = retry.EventRetrying
	RetryEventExhausted     = retry.EventExhausted
)

// Event represents an observable occurrence during execution.
type Event struct {
	Type EventType

	Capability vitrine.Capability

	// Model is the model in use when the event fired.
	Model string

	// FallbackModel is the replacement model (EventFallback only).
	FallbackModel string

	// Duration is the elapsed time for finished requests.
	Duration time.Duration

	// Error contains the classified error for EventRequestError and the
	// triggering error for EventFallback.
	Error error

	// RetryEvent contains the underlying retry event for EventRetry.
	RetryEvent *RetryEvent

	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
