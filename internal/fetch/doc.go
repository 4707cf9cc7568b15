// Package fetch retrieves web pages over HTTP with bounded retries.
//
// A Fetcher issues GET requests through a resty client. Network failures
// and transient HTTP statuses (408, 425, 429 and every 5xx) are retried
// with a doubling delay; anything else fails on the first attempt. When
// the attempt budget runs out, the caller receives a *FetchError whose
// Unwrap returns the last underlying error unchanged.
package fetch
