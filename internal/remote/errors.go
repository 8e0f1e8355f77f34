package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped by every StatusError.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrUnsupportedImage is returned by Upload for files the puzzle service
	// cannot decode.
	ErrUnsupportedImage = errors.New("unsupported image")
)

// StatusError is returned when the puzzle service answers with a non-2xx
// status.
type StatusError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", e.Op, e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
