package retry

import (
	"context"
	"errors"
	"time"
)

// Policy configures the retry budget of a single operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	// Each subsequent wait is twice the previous one.
	InitialDelay time.Duration
}

// Attempts returns the effective attempt budget.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait that follows the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Notify is called after a transient failure, before sleeping.
// attempt is the 1-based attempt that just failed.
type Notify func(attempt int, delay time.Duration, err error)

// Option configures a single Do call.
type Option func(*options)

type options struct {
	sleep  Sleeper
	notify Notify
}

// WithSleeper replaces the wall-clock sleeper. Tests use it to record delays.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithNotify registers a callback that observes every scheduled retry.
func WithNotify(n Notify) Option {
	return func(o *options) {
		o.notify = n
	}
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The error of the last attempt is returned as is.
// If ctx ends while waiting, the context error is joined with the last error.
// A nil transient predicate treats every error as non-transient.
func Do[T any](
	ctx context.Context,
	policy Policy,
	transient func(error) bool,
	fn func(ctx context.Context, attempt int) (T, error),
	opts ...Option,
) (T, error) {
	o := options{sleep: SleepContext}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	maxAttempts := policy.Attempts()
	delay := policy.InitialDelay

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}

		if attempt >= maxAttempts || transient == nil || !transient(err) {
			return zero, err
		}

		if o.notify != nil {
			o.notify(attempt, delay, err)
		}

		if serr := o.sleep(ctx, delay); serr != nil {
			return zero, errors.Join(serr, err)
		}
		delay *= 2
	}
}
