package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/loanbot/internal/service"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
	ErrInvalidDays = errors.New("days must be positive")
	ErrInvalidKind = errors.New("invalid interaction kind")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateKind(kind service.InteractionKind) error {
	switch kind {
	case service.InteractionMessageSent, service.InteractionDecisionMade, service.InteractionSessionReset:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

func validateDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}
	return nil
}
