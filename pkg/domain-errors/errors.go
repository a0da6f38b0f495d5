// Package domainerrors provides coded errors shared across services.
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded domain errors so transports can map codes to responses
// without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and logging.
type Code string

const (
	// CodeUnauthenticated: no credential, or the credential did not resolve
	// to an identity.
	CodeUnauthenticated Code = "unauthenticated"

	// CodeForbidden: the caller is known but a security check or permission
	// check rejected the request.
	CodeForbidden Code = "forbidden"

	// CodeRateLimited: the caller exhausted its request budget.
	CodeRateLimited Code = "rate_limited"

	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeInvalidInput: a single malformed argument.
	CodeInvalidInput Code = "invalid_input"

	// CodeValidation: structured field-level validation failure; the error
	// carries a FieldError list.
	CodeValidation Code = "validation"

	// CodeUnavailable: a backing store or collaborator is unreachable.
	CodeUnavailable Code = "unavailable"

	// CodeInternal: unexpected failure with no better classification.
	CodeInternal Code = "internal"
)

// FieldError describes one failing field in a validation error, so callers
// can render per-field feedback.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete coded error type.
type Error struct {
	Code   Code
	Msg    string
	Fields []FieldError
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg, cause: err}
}

// NewValidation creates a validation error carrying field-level details.
func NewValidation(fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Msg: "validation failed", Fields: fields}
}

// HasCode reports whether err (or anything in its chain) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when err
// is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf extracts field errors from the chain, or nil.
func FieldsOf(err error) []FieldError {
	var de *Error
	for errors.As(err, &de) {
		if len(de.Fields) > 0 {
			return de.Fields
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return nil
}
