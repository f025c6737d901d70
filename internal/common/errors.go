// Package common holds the error values, retry loop and logger setup shared by
// every other package.
package common

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")
	ErrUpstream          = errors.New("upstream model error")
	ErrMissingConfig     = errors.New("missing configuration")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// UserError pairs an internal cause with a message that is safe to show to an
// applicant or API caller.
type UserError struct {
	Err     error
	Message string
}

// NewUserError returns a *UserError showing message and wrapping err.
func NewUserError(message string, err error) error {
	return &UserError{Message: message, Err: err}
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage digs the first UserError out of err's chain. Without one it
// returns fallback so internal details never leak.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}
