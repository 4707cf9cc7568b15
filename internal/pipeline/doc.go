// Package pipeline turns case links into case records.
//
// Each link is processed by a Pipeline of Steps operating on a Job: fetch
// the page, reduce it to text, ask the model, recover JSON from the answer
// and validate its shape. The first failing step aborts the job; the
// Runner logs the failure, records the outcome and moves on to the next
// link. Links are processed strictly one after another.
package pipeline
