package inference

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyResponse is returned when the model produced no text, even
	// after the stricter follow-up call.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrMissingAPIKey is returned when a client is built without a key.
	ErrMissingAPIKey = errors.New("missing API key")
)

// transientStatus is the set of status codes that are retried.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// APIError is an error reported by the model endpoint.
type APIError struct {
	// Code is the HTTP status code.
	Code int

	// Status is the provider's symbolic status, e.g. "RESOURCE_EXHAUSTED".
	Status string

	// Message is the provider's human-readable message.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("model API error %d %s: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("model API error %d: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int {
	return e.Code
}

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// StatusCode extracts the HTTP status carried anywhere in err's chain.
// ok is false when no status is available, e.g. for transport errors.
func StatusCode(err error) (code int, ok bool) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

// IsTransient reports whether err carries a retryable status code.
func IsTransient(err error) bool {
	code, ok := StatusCode(err)
	return ok && transientStatus[code]
}

// InferenceError is returned when a model call failed for good.
type InferenceError struct {
	// Attempts is the number of calls that were made.
	Attempts int

	// StatusCode is the status of the last failure, or 0 if none was known.
	StatusCode int

	// Err is the error of the last attempt.
	Err error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// EmptyResponseError is returned when both the regular and the stricter
// call produced no text.
type EmptyResponseError struct {
	// Attempts is the total number of calls across both phases.
	Attempts int

	// Err is the failure of the stricter call, if it failed outright.
	Err error
}

// Error implements the error interface.
func (e *EmptyResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (after %d attempt(s)): stricter call: %v", ErrEmptyResponse, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%v (after %d attempt(s))", ErrEmptyResponse, e.Attempts)
}

// Unwrap returns ErrEmptyResponse and the stricter call's error.
func (e *EmptyResponseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEmptyResponse, e.Err}
	}
	return []error{ErrEmptyResponse}
}
