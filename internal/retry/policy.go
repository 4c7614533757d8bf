// Package retry wraps an operation in a bounded-attempt policy with an
// exponential delay curve.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call; values below 1 mean 1.
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 5 * time.Second,
		Multiplier:   2,
		MaxDelay:     time.Minute,
	}
}

func (p Policy) attempts() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

func (p Policy) backOff() backoff.BackOff {
	if p.InitialDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	maxDelay := p.MaxDelay
	if maxDelay < p.InitialDelay {
		maxDelay = p.InitialDelay
	}

	return &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          multiplier,
		MaxInterval:         maxDelay,
	}
}

// Notify is told about every failed attempt that will be retried.
type Notify func(attempt int, err error, wait time.Duration)

// Do calls op until it succeeds, returns an error retryable rejects, the
// context ends or the policy runs out of attempts. The last error is returned
// together with the number of attempts made.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, notify Notify, op func(context.Context) (T, error)) (T, int, error) {
	attempts := 0

	operation := func() (T, error) {
		attempts++
		res, err := op(ctx)
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.attempts()),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			notify(attempts, err, wait)
		}))
	}

	res, err := backoff.Retry(ctx, operation, opts...)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, attempts, err
}
