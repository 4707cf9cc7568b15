package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// sleepRecorder records requested delays without waiting.
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("two failures then success sleeps twice with doubling delay", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("<html><body>case</body></html>"))
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		f := New(
			WithMaxAttempts(4),
			WithInitialDelay(time.Second),
			WithSleeper(rec.sleep),
		)

		resp, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Body) != "<html><body>case</body></html>" {
			t.Errorf("unexpected body: %q", resp.Body)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", calls.Load())
		}

		want := []time.Duration{time.Second, 2 * time.Second}
		if diff := cmp.Diff(want, rec.delays); diff != "" {
			t.Errorf("delays mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		f := New(WithMaxAttempts(4), WithSleeper(rec.sleep))

		_, err := f.Fetch(context.Background(), server.URL)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %T: %v", err, err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 StatusError, got %v", err)
		}
		if fe.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", fe.Attempts)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 request, got %d", calls.Load())
		}
		if len(rec.delays) != 0 {
			t.Errorf("expected no sleeps, got %v", rec.delays)
		}
	})

	t.Run("exhausted budget wraps the last error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		var hooked []int
		f := New(
			WithMaxAttempts(3),
			WithInitialDelay(2*time.Second),
			WithSleeper(rec.sleep),
			WithAttemptHook(func(_ string, attempt int, _ error) {
				hooked = append(hooked, attempt)
			}),
		)

		_, err := f.Fetch(context.Background(), server.URL)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %T", err)
		}
		if fe.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", fe.Attempts)
		}
		se, ok := fe.Unwrap().(*StatusError)
		if !ok || se.StatusCode != http.StatusBadGateway {
			t.Errorf("expected unwrapped 502 StatusError, got %v", fe.Unwrap())
		}
		if diff := cmp.Diff([]time.Duration{2 * time.Second, 4 * time.Second}, rec.delays); diff != "" {
			t.Errorf("delays mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, hooked); diff != "" {
			t.Errorf("attempt hook mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid URL fails without a request", func(t *testing.T) {
		t.Parallel()

		f := New()
		for _, raw := range []string{"", "not a url", "ftp://example.com/file", "https://", "/relative/path"} {
			_, err := f.Fetch(context.Background(), raw)
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Fetch(%q): expected ErrInvalidURL, got %v", raw, err)
			}
		}
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := New(WithMaxAttempts(4), WithSleeper((&sleepRecorder{}).sleep))
		_, err := f.Fetch(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("sends the configured user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		f := New(WithUserAgent("caselift-test/1.0"))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "caselift-test/1.0" {
			t.Errorf("expected custom user agent, got %q", got)
		}
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "invalid url", err: ErrInvalidURL, want: false},
		{name: "404", err: &StatusError{StatusCode: 404}, want: false},
		{name: "403", err: &StatusError{StatusCode: 403}, want: false},
		{name: "408", err: &StatusError{StatusCode: 408}, want: true},
		{name: "429", err: &StatusError{StatusCode: 429}, want: true},
		{name: "500", err: &StatusError{StatusCode: 500}, want: true},
		{name: "503", err: &StatusError{StatusCode: 503}, want: true},
		{name: "network", err: errors.New("connection reset by peer"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
