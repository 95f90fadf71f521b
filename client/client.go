package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/internal/retry"
)

// ModelRouter resolves capabilities to models and missing models to their
// replacement. *router.Router implements it.
type ModelRouter interface {
	Resolve(c vitrine.Capability) string
	Fallback(failed string) (string, bool)
}

// ErrMissingDependency is returned by New when the router or transport is nil.
var ErrMissingDependency = errors.New("client: router and transport are required")

// Config holds configuration for creating an Executor.
type Config struct {
	Router    ModelRouter
	Transport Transport

	// Retry configures the rate-limit policy.
	// If nil, uses vitrine.DefaultRetryConfig().
	Retry *vitrine.RetryConfig

	// Events is an optional channel for receiving execution events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Response is a successful upstream answer.
type Response struct {
	Capability vitrine.Capability

	// Model is the model that actually answered, after any fallback.
	Model string

	StatusCode int
	Body       json.RawMessage
}

// Executor performs capability calls through the proxy with rate-limit
// retries and a single missing-model fallback. It is safe for concurrent use.
type Executor struct {
	router    ModelRouter
	transport Transport
	retry     retry.Config
	events    chan<- Event
	log       *slog.Logger
}

// New creates an Executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Router == nil || cfg.Transport == nil {
		return nil, ErrMissingDependency
	}
	rc := vitrine.DefaultRetryConfig()
	if cfg.Retry != nil {
		rc = *cfg.Retry
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		router:    cfg.Router,
		transport: cfg.Transport,
		retry:     retry.FromRetryConfig(rc),
		events:    cfg.Events,
		log:       log,
	}, nil
}

// Execute runs req for capability c.
//
// The model is resolved once. Rate-limited attempts are retried with backoff.
// If the model is rejected as missing, the call is repeated once against the
// router's fallback with a fresh retry budget. Any final failure is returned
// as a classified *vitrine.Error.
func (e *Executor) Execute(ctx context.Context, c vitrine.Capability, req vitrine.Request) (*Response, error) {
	if req == nil {
		return nil, vitrine.NewError(vitrine.KindGeneric, 0, fmt.Errorf("nil request: %w", vitrine.ErrEmptyInput))
	}
	start := time.Now()
	model := e.router.Resolve(c)
	log := e.log.With("capability", c, "endpoint", req.Endpoint())

	emit(e.events, Event{Type: EventRequestStart, Capability: c, Model: model})

	resp, err := e.attempt(ctx, log, c, model, req)
	if err != nil && isMissingModel(err) {
		if next, ok := e.router.Fallback(model); ok {
			log.Warn("model not found, trying fallback", "model", model, "fallback", next)
			emit(e.events, Event{Type: EventFallback, Capability: c, Model: model, FallbackModel: next, Error: err})
			model = next
			resp, err = e.attempt(ctx, log, c, model, req)
		}
	}

	if err != nil {
		classified := vitrine.Classify(err)
		log.Error("model call failed", "model", model, "kind", classified.Kind, "error", err)
		emit(e.events, Event{
			Type:       EventRequestError,
			Capability: c,
			Model:      model,
			Duration:   time.Since(start),
			Error:      classified,
		})
		return nil, classified
	}

	log.Debug("model call complete", "model", model, "duration", time.Since(start))
	emit(e.events, Event{
		Type:       EventRequestComplete,
		Capability: c,
		Model:      model,
		Duration:   time.Since(start),
	})
	return resp, nil
}

// attempt sends req to one model under the retry policy.
func (e *Executor) attempt(ctx context.Context, log *slog.Logger, c vitrine.Capability, model string, req vitrine.Request) (*Response, error) {
	env, err := vitrine.NewEnvelope(model, c, req)
	if err != nil {
		return nil, err
	}

	retryEvents := e.retry.EventBuffer()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.forwardRetryEvents(retryEvents, log, c, model)
	}()

	resp, err := retry.Do(ctx, e.retry, retryEvents, func(ctx context.Context) (*Response, error) {
		raw, err := e.transport.Send(ctx, env)
		if err != nil {
			return nil, err
		}
		if raw.StatusCode < 200 || raw.StatusCode > 299 {
			return nil, parseStatusError(raw.StatusCode, raw.Body)
		}
		return &Response{
			Capability: c,
			Model:      model,
			StatusCode: raw.StatusCode,
			Body:       raw.Body,
		}, nil
	})

	close(retryEvents)
	<-done
	return resp, err
}

// forwardRetryEvents logs retry waits and republishes retry events.
func (e *Executor) forwardRetryEvents(in <-chan retry.Event, log *slog.Logger, c vitrine.Capability, model string) {
	for ev := range in {
		if ev.Type == retry.EventRetrying {
			log.Warn("rate limited, retrying",
				"model", model,
				"attempt", ev.Attempt,
				"max_attempts", ev.MaxAttempts,
				"delay", ev.Delay,
			)
		}
		emit(e.events, Event{
			Type:       EventRetry,
			Capability: c,
			Model:      model,
			RetryEvent: &ev,
		})
	}
}

// isMissingModel reports a 404 or an error classified as not found.
func isMissingModel(err error) bool {
	var se *StatusError
	if errors.As(err, &se) && se.Status == 404 {
		return true
	}
	return vitrine.Classify(err).Kind == vitrine.KindNotFound
}
