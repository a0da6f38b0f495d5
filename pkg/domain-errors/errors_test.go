package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("returns the outermost code", func(t *testing.T) {
		inner := New(CodeNotFound, "profile missing")
		outer := Wrap(inner, CodeUnauthenticated, "session rejected")
		assert.Equal(t, CodeUnauthenticated, CodeOf(outer))
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeRateLimited, "slow down"))
		assert.Equal(t, CodeRateLimited, CodeOf(err))
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeNotFound, "profile missing")
	outer := Wrap(inner, CodeUnauthenticated, "session rejected")

	assert.True(t, HasCode(outer, CodeUnauthenticated))
	assert.True(t, HasCode(outer, CodeNotFound), "inner codes remain discoverable")
	assert.False(t, HasCode(outer, CodeForbidden))
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "profile lookup")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidation(t *testing.T) {
	fields := []FieldError{
		{Field: "email", Message: "must be a valid email"},
		{Field: "name", Message: "is required"},
	}
	err := NewValidation(fields)

	assert.Equal(t, CodeValidation, CodeOf(err))
	assert.Equal(t, fields, FieldsOf(err))

	t.Run("fields are found through wrapping", func(t *testing.T) {
		wrapped := Wrap(err, CodeInvalidInput, "bad request")
		assert.Equal(t, fields, FieldsOf(wrapped))
	})

	t.Run("no fields yields nil", func(t *testing.T) {
		assert.Nil(t, FieldsOf(New(CodeForbidden, "nope")))
	})
}
