package inference

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/caselift/internal/retry"
)

const (
	// DefaultMaxAttempts is the attempt budget of a regular call.
	DefaultMaxAttempts = 4

	// DefaultInitialDelay is the wait before the second attempt.
	DefaultInitialDelay = 2 * time.Second

	// StricterInstruction replaces the system instruction after an empty answer.
	StricterInstruction = "OUTPUT ONLY VALID JSON ARRAY. No markdown or extras."
)

// AttemptHook observes every model call. err is nil on success.
type AttemptHook func(attempt int, err error)

// Caller invokes a Generator with the pipeline's retry rules.
type Caller struct {
	gen       Generator
	system    string
	policy    retry.Policy
	logger    *slog.Logger
	sleep     retry.Sleeper
	onEmpty   func(prompt string)
	onAttempt AttemptHook
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithMaxAttempts sets the attempt budget of the regular call.
func WithMaxAttempts(n int) CallerOption {
	return func(c *Caller) {
		c.policy.MaxAttempts = n
	}
}

// WithInitialDelay sets the wait before the second attempt.
func WithInitialDelay(d time.Duration) CallerOption {
	return func(c *Caller) {
		c.policy.InitialDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CallerOption {
	return func(c *Caller) {
		c.logger = logger
	}
}

// WithSleeper replaces the wall-clock sleep between attempts.
func WithSleeper(s retry.Sleeper) CallerOption {
	return func(c *Caller) {
		c.sleep = s
	}
}

// WithEmptyHook registers a callback run once when the regular call
// returns no text, before the stricter call is made.
func WithEmptyHook(h func(prompt string)) CallerOption {
	return func(c *Caller) {
		c.onEmpty = h
	}
}

// WithAttemptHook registers a callback invoked after every model call.
func WithAttemptHook(h AttemptHook) CallerOption {
	return func(c *Caller) {
		c.onAttempt = h
	}
}

// NewCaller creates a Caller that sends systemInstruction with every prompt.
func NewCaller(gen Generator, systemInstruction string, opts ...CallerOption) *Caller {
	c := &Caller{
		gen:    gen,
		system: systemInstruction,
		policy: retry.Policy{
			MaxAttempts:  DefaultMaxAttempts,
			InitialDelay: DefaultInitialDelay,
		},
		logger: slog.Default(),
		sleep:  retry.SleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends prompt and returns the trimmed model text.
//
// Failures with status 429, 500, 502, 503 or 504 are retried within the
// attempt budget; any other failure is returned at once as *InferenceError.
// An empty answer is followed by exactly one call with StricterInstruction;
// if that is empty or fails too, the result is *EmptyResponseError.
func (c *Caller) Call(ctx context.Context, prompt string) (string, error) {
	text, attempts, err := c.call(ctx, Request{SystemInstruction: c.system, UserContent: prompt}, c.policy)
	if err != nil {
		return "", err
	}
	if text != "" {
		return text, nil
	}

	c.logger.Warn("empty model response, retrying with stricter instruction",
		slog.Int("attempts", attempts),
	)
	if c.onEmpty != nil {
		c.onEmpty(prompt)
	}

	strict := retry.Policy{MaxAttempts: 1}
	text, n, err := c.call(ctx, Request{SystemInstruction: StricterInstruction, UserContent: prompt}, strict)
	attempts += n
	if err != nil {
		return "", &EmptyResponseError{Attempts: attempts, Err: err}
	}
	if text == "" {
		return "", &EmptyResponseError{Attempts: attempts}
	}
	return text, nil
}

func (c *Caller) call(ctx context.Context, req Request, policy retry.Policy) (string, int, error) {
	attempts := 0
	text, err := retry.Do(ctx, policy, IsTransient,
		func(ctx context.Context, attempt int) (string, error) {
			attempts = attempt
			text, err := c.gen.Generate(ctx, req)
			if c.onAttempt != nil {
				c.onAttempt(attempt, err)
			}
			return text, err
		},
		retry.WithSleeper(c.sleep),
		retry.WithNotify(func(attempt int, delay time.Duration, err error) {
			code, _ := StatusCode(err)
			c.logger.Warn("transient model error, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", policy.Attempts()),
				slog.Int("status", code),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err != nil {
		code, _ := StatusCode(err)
		return "", attempts, &InferenceError{Attempts: attempts, StatusCode: code, Err: err}
	}
	return strings.TrimSpace(text), attempts, nil
}
