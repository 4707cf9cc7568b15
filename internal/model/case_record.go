package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Column names of the extracted fields, in output order.
const (
	FieldCaseNumber = "Case Number"
	FieldCaseTitle  = "Case Title"
	FieldFacts      = "Facts"
	FieldDecision   = "Decision"
	FieldRuling     = "Ruling"
	FieldVerdict    = "Verdict"
)

// ErrShape is returned when a decoded model response is not a JSON array
// containing exactly one object.
var ErrShape = errors.New("response must be a JSON array with exactly one object")

// Header returns the fixed column header of the output table.
// A new slice is returned on every call so callers may modify it.
func Header() []string {
	return []string{
		FieldCaseNumber,
		FieldCaseTitle,
		FieldFacts,
		FieldDecision,
		FieldRuling,
		FieldVerdict,
	}
}

// CaseRecord holds the fields extracted from a single case document.
// Records are created once per successfully processed link and never mutated.
type CaseRecord struct {
	CaseNumber string `json:"Case Number"`
	CaseTitle  string `json:"Case Title"`
	Facts      string `json:"Facts"`
	Decision   string `json:"Decision"`
	Ruling     string `json:"Ruling"`
	Verdict    string `json:"Verdict"`
}

// Values returns the record's fields in Header order.
func (r CaseRecord) Values() []string {
	return []string{r.CaseNumber, r.CaseTitle, r.Facts, r.Decision, r.Ruling, r.Verdict}
}

// RecordFromValues builds a record from a table row in Header order.
// Missing trailing cells are treated as empty.
func RecordFromValues(values []string) CaseRecord {
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return CaseRecord{
		CaseNumber: get(0),
		CaseTitle:  get(1),
		Facts:      get(2),
		Decision:   get(3),
		Ruling:     get(4),
		Verdict:    get(5),
	}
}

// RecordFromJSON validates a decoded JSON value and converts it to a record.
//
// The value must be a []any holding exactly one map[string]any. Field values
// are coerced to text; absent fields become empty strings.
func RecordFromJSON(v any) (CaseRecord, error) {
	items, ok := v.([]any)
	if !ok {
		return CaseRecord{}, fmt.Errorf("%w: got %s", ErrShape, describe(v))
	}
	if len(items) != 1 {
		return CaseRecord{}, fmt.Errorf("%w: got %d elements", ErrShape, len(items))
	}
	obj, ok := items[0].(map[string]any)
	if !ok {
		return CaseRecord{}, fmt.Errorf("%w: element is %s", ErrShape, describe(items[0]))
	}

	return CaseRecord{
		CaseNumber: coerceText(obj[FieldCaseNumber]),
		CaseTitle:  coerceText(obj[FieldCaseTitle]),
		Facts:      coerceText(obj[FieldFacts]),
		Decision:   coerceText(obj[FieldDecision]),
		Ruling:     coerceText(obj[FieldRuling]),
		Verdict:    coerceText(obj[FieldVerdict]),
	}, nil
}

// coerceText renders a decoded JSON value as cell text.
func coerceText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// describe names the JSON kind of a decoded value for error messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
