package github

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError is a remote failure worth retrying: network errors,
// timeouts, rate limiting, and server-side 5xx responses.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError is a remote rejection that retrying cannot fix, such as a
// malformed field or an unknown milestone (4xx other than 429).
type ValidationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// statusError converts an unexpected HTTP status into the right error kind.
// 429 and 5xx are transient; everything else is a validation failure.
func statusError(op string, statusCode int, body string) error {
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return &TransientError{Op: op, Err: fmt.Errorf("status %d: %s", statusCode, body)}
	}
	return &ValidationError{Op: op, StatusCode: statusCode, Message: body}
}
