package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// PermanentError marks a failure that must not be retried, such as an HTTP
// 403/404 block.
type PermanentError struct {
	Err        error
	StatusCode int
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as non-retryable with an optional status code.
func NewPermanentError(err error, statusCode int) *PermanentError {
	return &PermanentError{Err: err, StatusCode: statusCode}
}

// FatalError marks a failure that short-circuits the whole retry loop, such
// as a connection reset by the peer.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// NewFatalError wraps err as an immediate stop signal.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsFatal reports whether err carries a FatalError or a connection reset.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return true
	}
	return IsConnReset(err)
}

// IsConnReset reports a connection-reset-by-peer condition, checking both
// the syscall chain and the string forms HTTP clients wrap it in.
func IsConnReset(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset by peer")
}

// IsTransient reports whether err is worth retrying: not permanent, not
// fatal, and either a recognized transient network condition or anything
// else unclassified (unknown transport errors get the benefit of the doubt).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) || IsFatal(err) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	patterns := []string{
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return true
}

// IsTransientHTTPStatus reports whether an HTTP status is a retryable
// server-side condition.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
