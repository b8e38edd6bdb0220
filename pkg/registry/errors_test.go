package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with message",
			err: &Error{
				Op:  "Register",
				Err: ErrAlreadyExists,
				Msg: "writing record CM-A1B2C3D4E5F6",
			},
			expected: "Register: writing record CM-A1B2C3D4E5F6: hash code already registered",
		},
		{
			name: "error without message",
			err: &Error{
				Op:  "Resolve",
				Err: ErrNotFound,
			},
			expected: "Resolve: document record not found",
		},
		{
			name: "error with nested error",
			err: &Error{
				Op:  "Stats",
				Err: errors.New("connection timeout"),
				Msg: "scanning store",
			},
			expected: "Stats: scanning store: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Run("sentinel is reachable through the wrapper", func(t *testing.T) {
		err := &Error{Op: "Resolve", Err: ErrNotFound, Msg: "ABCDEF"}
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("double wrapping still matches", func(t *testing.T) {
		inner := &Error{Op: "Resolve", Err: ErrInvalidFormat}
		outer := fmt.Errorf("handling request: %w", inner)
		assert.True(t, errors.Is(outer, ErrInvalidFormat))
	})
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(&Error{Op: "Resolve", Err: ErrNotFound}))
	assert.True(t, IsAlreadyExists(&Error{Op: "Register", Err: ErrAlreadyExists}))
	assert.True(t, IsInvalidFormat(&Error{Op: "Resolve", Err: ErrInvalidFormat}))

	assert.False(t, IsNotFound(ErrAlreadyExists))
	assert.False(t, IsAlreadyExists(nil))
	assert.False(t, IsInvalidFormat(errors.New("other")))
}
