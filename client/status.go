package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

// StatusError is a non-2xx answer from the proxy or the upstream behind it.
type StatusError struct {
	// Status is the HTTP status code.
	Status int

	// Message is the vendor or proxy error message, if any.
	Message string

	// VendorStatus is the upstream status name, e.g. RESOURCE_EXHAUSTED.
	VendorStatus string

	// RetryDelay is the server retry hint, or 0.
	RetryDelay time.Duration
}

// Error returns a message that keeps the status code visible to classification.
func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "upstream returned HTTP %d", e.Status)
	if e.VendorStatus != "" {
		b.WriteString(" " + e.VendorStatus)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int { return e.Status }

// RetryAfter returns the server retry hint.
func (e *StatusError) RetryAfter() time.Duration { return e.RetryDelay }

// parseStatusError decodes the two error shapes seen behind the proxy:
// the vendor {"error": {"code", "message", "status", "details"}} object
// and the proxy's own {"error": "text"}.
func parseStatusError(status int, body []byte) *StatusError {
	se := &StatusError{Status: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		se.Message = http.StatusText(status)
		return se
	}

	var text string
	if json.Unmarshal(envelope.Error, &text) == nil {
		se.Message = text
		return se
	}

	var apiErr genai.APIError
	if json.Unmarshal(envelope.Error, &apiErr) == nil {
		se.Message = apiErr.Message
		se.VendorStatus = apiErr.Status
		se.RetryDelay = retryDelay(apiErr.Details)
	}
	return se
}

// retryDelay reads google.rpc.RetryInfo.retryDelay, e.g. "34s".
func retryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		if d["@type"] != retryInfoType {
			continue
		}
		s, _ := d["retryDelay"].(string)
		if delay, err := time.ParseDuration(s); err == nil && delay > 0 {
			return delay
		}
	}
	return 0
}
