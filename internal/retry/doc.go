// Package retry provides bounded exponential backoff for flaky I/O.
//
// Both the page fetcher and the inference caller retry through Do. A call is
// parameterized by a predicate that decides whether a failure is transient
// and by the attempt closure itself, so the loop lives in exactly one place.
//
// The delay starts at Policy.InitialDelay and doubles after every failed
// attempt. There is no jitter and no overall deadline beyond the attempt
// budget; the context only interrupts sleeps and is passed to each attempt.
//
// # Usage
//
//	page, err := retry.Do(ctx, retry.Policy{MaxAttempts: 4, InitialDelay: 2 * time.Second},
//	    isTransient,
//	    func(ctx context.Context, attempt int) (*Page, error) {
//	        return get(ctx, url)
//	    },
//	)
package retry
