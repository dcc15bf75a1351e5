// Package resilience bounds calls to network dependencies with a per-attempt
// timeout and a fixed number of retries.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how one dependency is called.
type Policy struct {
	Name    string
	Timeout time.Duration // per attempt, zero means no timeout
	Retries int           // extra attempts after the first
	Backoff time.Duration // pause between attempts
}

// Notify is called before each retry.
type Notify func(policy string, attempt int, err error)

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn under the policy. The parent context is never extended: when it
// is done no further attempt is made.
func Do[T any](ctx context.Context, p Policy, notify Notify, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		callCtx := ctx
		cancel := func() {}
		if p.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		defer cancel()

		out, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	retries := p.Retries
	if retries < 0 {
		retries = 0
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Backoff)),
		backoff.WithMaxTries(uint(retries + 1)),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, _ time.Duration) {
			notify(p.Name, attempt, err)
		}))
	}

	return backoff.Retry(ctx, op, opts...)
}

// IsTimeout reports whether err came from an attempt deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
