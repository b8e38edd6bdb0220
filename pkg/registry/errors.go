package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations. Callers classify outcomes with
// errors.Is rather than matching message strings.
var (
	// ErrNotFound indicates no record matched the presented code. This is a
	// normal outcome of a lookup, not a failure of the registry.
	ErrNotFound = errors.New("document record not found")

	// ErrAlreadyExists indicates a registration attempted to claim a hash
	// code that is already live, without requesting overwrite.
	ErrAlreadyExists = errors.New("hash code already registered")

	// ErrInvalidFormat indicates user input that matches neither the full
	// nor the short code shape. User-correctable.
	ErrInvalidFormat = errors.New("invalid code format")

	// ErrStoreUnavailable indicates the backing store cannot be read at all
	// (e.g., the registry root directory is gone). Fatal: no request can be
	// served until the medium is back.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// Error wraps a registry error with the operation that produced it and an
// optional human-readable message.
type Error struct {
	// Op is the operation that failed (e.g., "Register", "Resolve").
	Op string

	// Err is the underlying error, usually one of the sentinels above.
	Err error

	// Msg is additional context for the caller.
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err represents a clean lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists returns true if err represents a uniqueness violation.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidFormat returns true if err represents malformed user input.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}
