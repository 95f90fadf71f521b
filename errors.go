package vitrine

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a required input is empty.
var ErrEmptyInput = errors.New("empty input")

// Kind classifies a failed model call into the small taxonomy the UI branches on.
type Kind string

const (
	// KindQuota indicates the vendor rate limit or quota was hit.
	KindQuota Kind = "quota"

	// KindContentBlocked indicates the vendor safety filters rejected the request or result.
	KindContentBlocked Kind = "content_blocked"

	// KindNotFound indicates the model is unknown, retired or not accessible.
	KindNotFound Kind = "not_found"

	// KindNetwork indicates a transport failure, timeout or cancellation.
	KindNetwork Kind = "network"

	// KindGeneric is everything else.
	KindGeneric Kind = "generic"
)

// messages maps each kind to the sentence shown to the user.
var messages = map[Kind]string{
	KindQuota:          "Cota excedida ou limite de requisições atingido. Tente novamente em instantes.",
	KindContentBlocked: "Conteúdo bloqueado pelos filtros de segurança.",
	KindNotFound:       "Modelo não encontrado ou acesso restrito.",
	KindNetwork:        "Erro de rede ou timeout na conexão com a IA.",
	KindGeneric:        "Não foi possível concluir a solicitação à IA.",
}

// Message returns the user-facing sentence for the kind.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[KindGeneric]
}

// String returns the kind identifier.
func (k Kind) String() string { return string(k) }

// Error is a classified failure of a model call.
// Msg is safe to show to users; the vendor wording is only kept in Cause.
type Error struct {
	Kind  Kind
	Msg   string
	Code  int   // HTTP status code, 0 if not applicable
	Cause error // underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the sentence suitable for direct display.
func (e *Error) UserMessage() string {
	return e.Msg
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// NewError creates a classified error using the kind's standard message.
func NewError(kind Kind, code int, cause error) *Error {
	return &Error{
		Kind:  kind,
		Msg:   kind.Message(),
		Code:  code,
		Cause: cause,
	}
}

// KindOf returns the kind of a classified error, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsQuota returns true if the error is classified as a quota failure.
func IsQuota(err error) bool { return KindOf(err) == KindQuota }

// IsContentBlocked returns true if the error is classified as blocked content.
func IsContentBlocked(err error) bool { return KindOf(err) == KindContentBlocked }

// IsNotFound returns true if the error is classified as a missing model.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsNetwork returns true if the error is classified as a network failure.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// StatusCodeOf returns the HTTP status code from a classified error, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// ImageError represents an error while reading or decoding an image.
type ImageError struct {
	Op     string // "decode", "read" or "parse"
	Source string // file path or "data-url"
	Err    error
}

// Error returns a formatted error message describing the image failure.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s error for %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ImageError) Unwrap() error {
	return e.Err
}
