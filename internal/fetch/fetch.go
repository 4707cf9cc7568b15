package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nao1215/caselift/internal/retry"
)

const (
	// DefaultTimeout is the per-attempt timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the total attempt budget of a single Fetch.
	DefaultMaxAttempts = 4

	// DefaultInitialDelay is the wait before the second attempt.
	DefaultInitialDelay = 2 * time.Second

	// DefaultUserAgent identifies the client to the server.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Response is a successfully fetched page.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the final HTTP status (always 2xx).
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the raw response body.
	Body []byte
}

// AttemptHook observes every attempt. err is nil on success.
type AttemptHook func(url string, attempt int, err error)

// Fetcher performs GET requests with retries.
type Fetcher struct {
	client    *resty.Client
	policy    retry.Policy
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
	sleep     retry.Sleeper
	onAttempt AttemptHook
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxAttempts sets the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		f.policy.MaxAttempts = n
	}
}

// WithInitialDelay sets the wait before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.policy.InitialDelay = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithSleeper replaces the wall-clock sleep between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithAttemptHook registers a callback invoked after every attempt.
func WithAttemptHook(h AttemptHook) Option {
	return func(f *Fetcher) {
		f.onAttempt = h
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		policy: retry.Policy{
			MaxAttempts:  DefaultMaxAttempts,
			InitialDelay: DefaultInitialDelay,
		},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
		sleep:     retry.SleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = resty.New().
		SetTimeout(f.timeout).
		SetHeader("User-Agent", f.userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return f
}

// Policy returns the retry policy in effect.
func (f *Fetcher) Policy() retry.Policy {
	return f.policy
}

// Fetch retrieves rawURL, retrying transient failures.
// A malformed URL fails immediately with ErrInvalidURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Attempts: 0, Err: err}
	}

	attempts := 0
	transient := func(err error) bool {
		return ctx.Err() == nil && IsTransient(err)
	}

	resp, err := retry.Do(ctx, f.policy, transient,
		func(ctx context.Context, attempt int) (*Response, error) {
			attempts = attempt
			resp, err := f.get(ctx, rawURL)
			if f.onAttempt != nil {
				f.onAttempt(rawURL, attempt, err)
			}
			return resp, err
		},
		retry.WithSleeper(f.sleep),
		retry.WithNotify(func(attempt int, delay time.Duration, err error) {
			f.logger.Warn("fetch attempt failed, retrying",
				slog.String("url", rawURL),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", f.policy.Attempts()),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Attempts: attempts, Err: err}
	}
	return resp, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*Response, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, &StatusError{URL: rawURL, StatusCode: res.StatusCode()}
	}

	f.logger.Debug("fetched page",
		slog.String("url", rawURL),
		slog.Int("status", res.StatusCode()),
		slog.Int("bytes", len(res.Body())),
		slog.Duration("elapsed", res.Time()),
	)

	return &Response{
		URL:        rawURL,
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
	}, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
