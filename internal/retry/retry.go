// Package retry wraps blocking calls in a bounded exponential backoff policy.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/eapache/go-resiliency/retrier"
)

// Policy bounds how often and how patiently a call is retried.
//
// Attempts counts the first call, so Attempts of 4 means up to three retries.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy returns 4 attempts backing off from 500ms, capped at 6s.
func DefaultPolicy() Policy {
	return Policy{Attempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 6 * time.Second}
}

// FromConfig builds a policy from the [sync.retry] section.
func FromConfig(cfg shared.RetryConfig) Policy {
	return Policy{
		Attempts:  cfg.Attempts,
		BaseDelay: shared.Millis(cfg.BaseDelayMS),
		MaxDelay:  shared.Millis(cfg.MaxDelayMS),
	}
}

// Backoff returns the waits between attempts: Attempts-1 entries doubling from BaseDelay, capped at MaxDelay.
func (p Policy) Backoff() []time.Duration {
	if p.Attempts <= 1 {
		return nil
	}

	waits := make([]time.Duration, p.Attempts-1)
	d := p.BaseDelay
	for i := range waits {
		if p.MaxDelay > 0 && d > p.MaxDelay {
			d = p.MaxDelay
		}
		waits[i] = d
		d *= 2
	}
	return waits
}

// Do calls fn until it succeeds or the policy runs out of attempts. Every error is retried.
//
// When all attempts fail, the last error is returned wrapped with [shared.ErrRetryExhausted].
// A cancelled context stops the backoff and returns the context error.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var (
		result T
		calls  int
	)

	err := retrier.New(p.Backoff(), nil).RunCtx(ctx, func(ctx context.Context) error {
		calls++
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})

	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil:
		return result, ctx.Err()
	default:
		return result, fmt.Errorf("%w after %d attempts: %w", shared.ErrRetryExhausted, calls, err)
	}
}
