package recall

import (
	"errors"
	"fmt"
)

// ConnectivityError reports a store command that could not be completed.
// Absent keys are never reported this way; they surface as explicit "not found" results.
type ConnectivityError struct {
	// Command is the store command that failed (e.g. "INCR", "RPUSH")
	Command string

	// Key is the key the command addressed (may be empty for FLUSHDB / PING)
	Key string

	// Cause is the underlying client error
	Cause error
}

func (e *ConnectivityError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s failed: %v", e.Command, e.Cause)
	}
	return fmt.Sprintf("store %s %q failed: %v", e.Command, e.Key, e.Cause)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// FormatError reports a stored value that could not be decoded.
type FormatError struct {
	// Key is the key whose value failed to decode
	Key string

	// Decoder names the attempted decoding (e.g. "int", "args/v1")
	Decoder string

	// Value is the raw stored value
	Value []byte

	// Cause is the underlying parse error
	Cause error
}

func (e *FormatError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot decode value as %s: %v", e.Decoder, e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("cannot decode %q as %s: %v", e.Key, e.Decoder, e.Cause)
	}
	return fmt.Sprintf("cannot decode %q as %s", e.Key, e.Decoder)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// Common sentinel errors
var (
	// ErrInvalidTTL is returned when a cache TTL is not a whole number of seconds >= 1s
	ErrInvalidTTL = errors.New("ttl must be a whole number of seconds and at least 1s")

	// ErrUnsupportedValue is returned when Cache.Store receives a non-scalar value
	ErrUnsupportedValue = errors.New("value must be text, bytes, an integer or a float")

	// ErrEmptyIdentity is returned when a method is created without a name
	ErrEmptyIdentity = errors.New("operation identity must not be empty")

	// ErrNilClient is returned when a layer is constructed without a store handle
	ErrNilClient = errors.New("store client is nil")
)

// storeError wraps a client error as a ConnectivityError.
func storeError(command, key string, err error) error {
	if err == nil {
		return nil
	}
	return &ConnectivityError{Command: command, Key: key, Cause: err}
}
