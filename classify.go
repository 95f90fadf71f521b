package vitrine

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
)

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// rule pairs a predicate over a failure with the kind it produces.
type rule struct {
	kind  Kind
	match func(err error, text string) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{KindQuota, containsAny("429", "quota", "resource_exhausted")},
	{KindContentBlocked, containsAny("safety", "blocked", "content_filter")},
	{KindNotFound, containsAny("404", "not found")},
	{KindNetwork, func(err error, text string) bool {
		return isAbort(err) || containsAny("network", "fetch")(err, text)
	}},
}

func containsAny(needles ...string) func(error, string) bool {
	return func(_ error, text string) bool {
		for _, n := range needles {
			if strings.Contains(text, n) {
				return true
			}
		}
		return false
	}
}

// isAbort reports timeouts, cancellations and transport failures.
func isAbort(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify maps a raw failure to a classified *Error.
// Errors that are already classified are returned unchanged.
// Classify returns nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	code := 0
	var sc statusCoder
	if errors.As(err, &sc) {
		code = sc.StatusCode()
	}

	text := strings.ToLower(err.Error())
	if code > 0 {
		text += " " + strconv.Itoa(code)
	}

	for _, r := range rules {
		if r.match(err, text) {
			return NewError(r.kind, code, err)
		}
	}
	return NewError(KindGeneric, code, err)
}
