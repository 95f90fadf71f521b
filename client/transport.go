package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

// maxResponseBytes bounds a proxy response. Imagen responses carry
// base64 images, so this is generous.
const maxResponseBytes = 64 << 20

// ErrResponseTooLarge reports a proxy answer over the transport limit.
var ErrResponseTooLarge = errors.New("response too large")

// RawResponse is the proxy answer to one envelope.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Transport delivers an envelope to the model proxy.
// Send returns an error only when no HTTP response was obtained;
// upstream failures come back as a RawResponse with a non-2xx status.
type Transport interface {
	Send(ctx context.Context, env vitrine.Envelope) (*RawResponse, error)
}

// HTTPTransport posts envelopes as JSON to a proxy URL.
type HTTPTransport struct {
	url     string
	client  *http.Client
	headers http.Header
	limit   int64
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) TransportOption {
	return func(t *HTTPTransport) {
		t.headers.Add(key, value)
	}
}

// WithMaxResponseBytes bounds the accepted proxy answer. Non-positive values keep the default.
func WithMaxResponseBytes(n int64) TransportOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.limit = n
		}
	}
}

// NewHTTPTransport creates a transport for the proxy at proxyURL.
func NewHTTPTransport(proxyURL string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		url:     proxyURL,
		client:  http.DefaultClient,
		headers: make(http.Header),
		limit:   maxResponseBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send posts env and returns the proxy status and body.
func (t *HTTPTransport) Send(ctx context.Context, env vitrine.Envelope) (*RawResponse, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range t.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read proxy response: %w", err)
	}
	if int64(len(data)) > t.limit {
		return nil, vitrine.NewError(vitrine.KindGeneric, resp.StatusCode,
			fmt.Errorf("read proxy response: %w: over %d bytes", ErrResponseTooLarge, t.limit))
	}
	return &RawResponse{StatusCode: resp.StatusCode, Body: data}, nil
}
