// Package resilience provides retry logic and the typed error taxonomy used by
// the marketplace client and the estimation pipeline.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// NetworkKind classifies a NetworkError by its failure mode.
type NetworkKind string

const (
	NetworkTimeout NetworkKind = "timeout"
	NetworkConnect NetworkKind = "connect"
	NetworkHTTP    NetworkKind = "http"
)

// NetworkError is a connection, timeout, or HTTP-status failure from an
// external marketplace. The estimator degrades these to heuristic-only
// estimates rather than failing the task.
type NetworkError struct {
	Kind       NetworkKind
	StatusCode int // set when Kind is NetworkHTTP
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Kind == NetworkHTTP {
		return fmt.Sprintf("network error (http %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error (%s): %v", e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError wraps err as a NetworkError of the given kind.
func NewNetworkError(kind NetworkKind, err error) *NetworkError {
	return &NetworkError{Kind: kind, Err: err}
}

// NewHTTPError wraps an unexpected HTTP status as a NetworkError.
func NewHTTPError(statusCode int, err error) *NetworkError {
	return &NetworkError{Kind: NetworkHTTP, StatusCode: statusCode, Err: err}
}

// IsNetworkError reports whether err carries a NetworkError anywhere in its chain.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ParseError is a malformed marketplace response. Callers treat it as an empty
// live-listing set, never as a task failure.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a ParseError for the given operation.
func NewParseError(op string, err error) *ParseError {
	return &ParseError{Op: op, Err: err}
}

// IsParseError reports whether err carries a ParseError anywhere in its chain.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsTransient reports whether err is worth retrying: a NetworkError with a
// retryable status or kind, or a network-level timeout / connection failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		if ne.Kind == NetworkHTTP {
			return IsTransientStatus(ne.StatusCode)
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientStatus reports whether an HTTP status code indicates a
// server-side condition that is safe to retry.
func IsTransientStatus(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
