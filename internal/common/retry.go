package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/loanbot/internal/service"
)

var (
	// ErrRateLimit marks a provider refusal that should be retried after the longest delay.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries wraps the last error once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError tags an error as worth retrying or not.
type RetryableError struct {
	Err       error
	Retryable bool
}

// Transient marks err as safe to retry.
func Transient(err error) error { return &RetryableError{Err: err, Retryable: true} }

// Permanent marks err as final; WithRetry returns it without another attempt.
func Permanent(err error) error { return &RetryableError{Err: err, Retryable: false} }

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a rate limit, a deadline, or explicitly
// tagged Transient.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var re *RetryableError
	return errors.As(err, &re) && re.Retryable
}

func isPermanent(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) && !re.Retryable
}

// AttemptFunc is called with the 1-based attempt number.
type AttemptFunc func(attempt int) error

// backoff hands out exponentially growing delays capped at limit.
type backoff struct {
	next   time.Duration
	limit  time.Duration
	factor float64
}

func newBackoff(opts service.RetryOptions) *backoff {
	b := &backoff{next: opts.InitialDelay, limit: opts.MaxDelay, factor: opts.Multiplier}
	if b.next <= 0 {
		b.next = 100 * time.Millisecond
	}
	if b.limit <= 0 {
		b.limit = 30 * time.Second
	}
	if b.factor <= 0 {
		b.factor = 2
	}
	return b
}

// delay returns the wait before the next attempt and advances the schedule.
func (b *backoff) delay(err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		b.next = b.limit
	}
	d := b.next
	b.next = min(time.Duration(float64(b.next)*b.factor), b.limit)
	return d
}

// WithRetry runs operation until it succeeds, fails permanently, exhausts
// opts.MaxAttempts or ctx ends.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	return WithRetryAttempts(ctx, func(int) error { return operation() }, opts, nil)
}

// WithRetryAttempts is WithRetry with the attempt number passed to operation.
// onFailure, when set, sees every failed attempt including the last.
func WithRetryAttempts(ctx context.Context, operation AttemptFunc, opts service.RetryOptions, onFailure func(attempt int, err error)) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	b := newBackoff(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(attempt); err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, err)
		}
		if isPermanent(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
		}

		wait := b.delay(err)
		slog.Warn("Attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
