package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
// It is never retried.
var ErrInvalidURL = errors.New("invalid URL: expected absolute http or https URL")

// StatusError reports a response whose status code is not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooEarly,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// FetchError is returned once a fetch has failed for good.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Attempts is the number of requests that were made.
	Attempts int

	// Err is the error of the last attempt.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient classifies a single attempt's error.
// Status errors are transient only for the statuses listed in the package
// documentation. Invalid URLs are permanent. Any other error comes from the
// transport (DNS, connection reset, per-attempt timeout) and is transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidURL) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return true
}
