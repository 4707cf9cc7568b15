// Package inference sends extraction prompts to a generative model and
// returns the raw text answer.
//
// The Generator interface is the model boundary. GeminiClient implements it
// against the Gemini generateContent REST endpoint. Caller wraps a Generator
// with the retry rules of the extraction pipeline: only rate limiting and
// server-side failures (429, 500, 502, 503, 504) are retried, and an empty
// answer triggers a single follow-up call with a stricter instruction.
package inference
