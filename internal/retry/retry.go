// Package retry provides the shared retry-with-backoff loop used for catalog,
// suggestion, and per-item ingestion attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 10 * time.Second
)

// Policy controls how Do schedules attempts. Delays double per attempt from
// BaseDelay up to MaxDelay; setting MaxDelay equal to BaseDelay yields a
// fixed delay. A nil Retryable retries every error that is not marked
// permanent. Sleeper overrides how delays are waited out (test seam).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
	Sleeper     func(time.Duration)
}

// Fixed builds a policy with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: delay, MaxDelay: delay}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) baseDelay() time.Duration {
	if p.BaseDelay < 0 {
		return 0
	}
	if p.BaseDelay == 0 && p.MaxDelay == 0 {
		return defaultBaseDelay
	}
	return p.BaseDelay
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	if p.BaseDelay > 0 {
		return p.BaseDelay
	}
	return defaultMaxDelay
}

// delayFor returns the pause before the attempt following the given 1-based
// attempt: base, base*2, base*4, ... capped at maxDelay.
func (p Policy) delayFor(attempt int) time.Duration {
	base := p.baseDelay()
	if base <= 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Do invokes fn until it succeeds, the policy's attempts are exhausted, the
// error is permanent, or ctx ends. Exhaustion wraps the last error with the
// operation label and attempt count; permanent and context failures return
// the error as-is. Errors exposing a RetryAfterHint override the computed
// delay for the next attempt.
func Do(ctx context.Context, policy Policy, operation string, fn func(context.Context) error) error {
	attempts := policy.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(ctx, policy, err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := policy.delayFor(attempt)
		var carrier interface{ RetryAfterHint() time.Duration }
		if errors.As(err, &carrier) {
			if hint := carrier.RetryAfterHint(); hint > 0 {
				delay = hint
				if maxDelay := policy.maxDelay(); delay > maxDelay {
					delay = maxDelay
				}
			}
		}
		if err := sleep(ctx, policy.Sleeper, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", operation, attempts, lastErr)
}

func shouldRetry(ctx context.Context, policy Policy, err error) bool {
	if ctx != nil && ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	if policy.Retryable != nil {
		return policy.Retryable(err)
	}
	return true
}

func sleep(ctx context.Context, sleeper func(time.Duration), delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sleeper != nil {
		sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do stops immediately instead of burning the
// remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) was marked with
// Permanent.
func IsPermanent(err error) bool {
	var marked *permanentError
	return errors.As(err, &marked)
}
