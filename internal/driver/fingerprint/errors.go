package fingerprint

import (
	"errors"
	"fmt"
)

// ErrCodeTransportFailure is the error code for transport-level failures.
// The underlying network error is surfaced opaquely; callers should not
// branch on its concrete type.
const ErrCodeTransportFailure = "TRANSPORT_FAILURE"

var errNotConnected = errors.New("not connected; session was not opened")

// TransportError wraps a network failure on the printer connection.
type TransportError struct {
	Addr string
	Op   string // "dial", "write", or "close"
	Err  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrCodeTransportFailure, e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportFailure reports whether err is a transport failure.
// Uses errors.As to handle wrapped errors.
func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
