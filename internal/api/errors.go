package api

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the referenced resource is absent upstream.
var ErrNotFound = errors.New("api: not found")

// RequestError is returned for failed requests and non-2xx responses. Message
// carries the human-readable text supplied by the server (the "detail" or
// "message" field of its error envelope) when one was present.
type RequestError struct {
	Status  int
	Message string
	cause   error
}

func (e *RequestError) Error() string {
	switch {
	case e.cause != nil:
		return fmt.Sprintf("api: request failed: %v", e.cause)
	case e.Message != "":
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("api: status %d", e.Status)
	}
}

func (e *RequestError) Unwrap() error { return e.cause }

// UserMessage returns the server-supplied text suitable for display, falling
// back to a generic label when the failure happened before a response arrived.
func (e *RequestError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Ошибка сервера"
}

// IsNetworkError reports whether err represents a failed or rejected request.
func IsNetworkError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
