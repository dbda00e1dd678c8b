package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code buckets a raw transport or protocol failure into one of the categories
// the synchronizer state machine understands.
type Code string

const (
	// CodeCORS marks a cross-origin rejection. Retrying cannot fix it; only a
	// server-side configuration change can, so it is never masked.
	CodeCORS Code = "CORS_ERROR"
	// CodeHTTP marks a non-2xx response.
	CodeHTTP Code = "HTTP_ERROR"
	// CodeParse marks an unparsable response body.
	CodeParse Code = "PARSE_ERROR"
	// CodeConnection marks a transport-level failure (DNS, refused, timeout).
	CodeConnection Code = "CONNECTION_ERROR"
)

// Error is a classified API failure.
type Error struct {
	Code       Code
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the classification of err, or CodeConnection when err was
// never classified.
func CodeOf(err error) Code {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeConnection
}

// IsCORS reports whether err is classified as a cross-origin rejection.
func IsCORS(err error) bool {
	return CodeOf(err) == CodeCORS
}

// classify wraps a raw transport error. Anything whose text points at a
// cross-origin rejection becomes CodeCORS; context cancellation and everything
// else becomes CodeConnection.
func classify(err error) *Error {
	msg := err.Error()
	if looksLikeCORS(msg) {
		return newError(CodeCORS, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeConnection, "request timed out: "+msg, err)
	}
	return newError(CodeConnection, msg, err)
}

func looksLikeCORS(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "cors") || strings.Contains(lower, "cross-origin")
}
