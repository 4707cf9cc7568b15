// Package recovery turns free-form model output into a decoded JSON value.
//
// Language models asked for "only a JSON array" still wrap answers in prose,
// code fences, or emit near-JSON with trailing commas and raw newlines inside
// strings. A Ladder tries an ordered list of strategies and the first one
// that decodes wins:
//
//  1. direct: encoding/json on the full text
//  2. repair: best-effort repair of the full text, decoded as JSON5
//  3. extract: the first [ {...} ] substring, decoded with encoding/json
//  4. extract+repair: the same substring, repaired and decoded as JSON5
//
// Every strategy is a pure function from text to an optional value, so each
// can be tested on its own and new ones can be appended to a Ladder.
package recovery
