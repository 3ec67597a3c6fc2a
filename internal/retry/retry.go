// Package retry runs an operation under a bounded backoff policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotYet signals that the operation ran cleanly but its condition is not met yet.
var ErrNotYet = errors.New("condition not met")

// Policy describes a bounded retry loop with a fixed base delay and optional jitter.
type Policy struct {
	Attempts int           // total attempts including the first
	Delay    time.Duration // pause between attempts
	Jitter   float64       // 0..1, randomizes each pause by ±Jitter*Delay
}

// DefaultPolicy retries three times, 500ms apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: 500 * time.Millisecond}
}

// Permanent wraps err so Do stops without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (p Policy) backOff() backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff
	if p.Jitter > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.Delay
		eb.Multiplier = 1
		eb.RandomizationFactor = p.Jitter
		eb.MaxInterval = p.Delay
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	} else {
		b = backoff.NewConstantBackOff(p.Delay)
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Do calls op until it returns nil, a permanent error, ctx ends or the attempts
// are used up. It returns the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return op(ctx, attempts)
	}, backoff.WithContext(p.backOff(), ctx))
	return attempts, err
}
