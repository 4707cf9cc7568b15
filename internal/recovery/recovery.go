package recovery

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/titanous/json5"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyDirect        = "direct"
	StrategyRepair        = "repair"
	StrategyExtract       = "extract"
	StrategyExtractRepair = "extract+repair"
)

// ErrUnparsableJSON is returned when no strategy could decode the text.
var ErrUnparsableJSON = errors.New("could not parse JSON response even with repairs")

// arrayPattern matches the first JSON-array-of-objects shaped substring.
var arrayPattern = regexp.MustCompile(`(?s)(\[\s*\{.*?\}\s*\])`)

// Strategy is one rung of the recovery ladder.
type Strategy struct {
	// Name identifies the strategy in logs and metrics.
	Name string

	// Apply returns the decoded value and true on success.
	Apply func(text string) (any, bool)
}

// Result is a successfully recovered value.
type Result struct {
	// Value is the decoded JSON value ([]any, map[string]any, string, float64, bool or nil).
	Value any

	// Strategy is the name of the strategy that produced Value.
	Strategy string
}

// Ladder is an ordered list of strategies.
type Ladder []Strategy

// DefaultLadder returns the four-step ladder described in the package doc.
func DefaultLadder() Ladder {
	return Ladder{
		{Name: StrategyDirect, Apply: Direct},
		{Name: StrategyRepair, Apply: Repair},
		{Name: StrategyExtract, Apply: ExtractDirect},
		{Name: StrategyExtractRepair, Apply: ExtractRepair},
	}
}

// Recover tries each strategy in order and returns the first success.
func (l Ladder) Recover(text string) (Result, error) {
	for _, s := range l {
		if v, ok := s.Apply(text); ok {
			return Result{Value: v, Strategy: s.Name}, nil
		}
	}
	return Result{}, ErrUnparsableJSON
}

// Recover runs the default ladder.
func Recover(text string) (Result, error) {
	return DefaultLadder().Recover(text)
}

// Direct decodes text as strict JSON.
func Direct(text string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Repair applies RepairText and decodes the result as JSON5, which also
// tolerates trailing commas, single-quoted strings and unquoted keys.
func Repair(text string) (any, bool) {
	repaired := RepairText(text)
	if repaired == "" {
		return nil, false
	}
	var v any
	if err := json5.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

// ExtractArray returns the first substring shaped like an array of objects.
func ExtractArray(text string) (string, bool) {
	m := arrayPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractDirect decodes the extracted array substring as strict JSON.
func ExtractDirect(text string) (any, bool) {
	sub, ok := ExtractArray(text)
	if !ok {
		return nil, false
	}
	return Direct(sub)
}

// ExtractRepair repairs and decodes the extracted array substring.
func ExtractRepair(text string) (any, bool) {
	sub, ok := ExtractArray(text)
	if !ok {
		return nil, false
	}
	return Repair(sub)
}

// RepairText makes a best-effort pass over near-JSON text:
//   - strips a surrounding markdown code fence
//   - escapes raw newlines, carriage returns and tabs inside strings
//   - escapes double quotes inside strings that are not followed by a delimiter
//   - closes an unterminated string and unbalanced brackets at the end
func RepairText(text string) string {
	s := stripFence(strings.TrimSpace(text))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	runes := []rune(s)
	stack := make([]rune, 0, 8)
	inString := false
	escaped := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
			case r == '\\':
				escaped = true
				b.WriteRune(r)
			case r == '"':
				if closesString(runes, i+1) {
					inString = false
					b.WriteRune(r)
				} else {
					b.WriteString(`\"`)
				}
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '[', '{':
			stack = append(stack, r)
		case ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
		b.WriteRune(r)
	}

	if inString {
		if escaped {
			b.WriteRune('\\')
		}
		b.WriteRune('"')
	}

	out := strings.TrimRight(b.String(), " \t\r\n")
	if len(stack) > 0 {
		out = strings.TrimRight(out, ",")
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == '[' {
				out += "]"
			} else {
				out += "}"
			}
		}
	}
	return out
}

// closesString reports whether a quote at runes[i-1] terminates a string,
// which is the case when the next non-space rune is a delimiter or the end.
func closesString(runes []rune, i int) bool {
	for ; i < len(runes); i++ {
		switch runes[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ',', '}', ']', ':':
			return true
		default:
			return false
		}
	}
	return true
}

// stripFence removes a leading ```lang line and a trailing ``` fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
