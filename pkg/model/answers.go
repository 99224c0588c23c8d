package model

import "strings"

// AnswerSet maps field paths to raw values: string, []string or DateValue.
// Sets are built fresh per request and treated as read-only by the engine.
type AnswerSet map[string]any

// DateValue is the canonical representation of a date answer.
type DateValue struct {
	Day   string `json:"day" yaml:"day"`
	Month string `json:"month" yaml:"month"`
	Year  string `json:"year" yaml:"year"`
}

// IsBlank reports whether every part is empty.
func (d DateValue) IsBlank() bool {
	return strings.TrimSpace(d.Day) == "" && strings.TrimSpace(d.Month) == "" && strings.TrimSpace(d.Year) == ""
}

// Map converts the value into the generic map form used by stores.
func (d DateValue) Map() map[string]any {
	return map[string]any{"day": d.Day, "month": d.Month, "year": d.Year}
}

// Lookup resolves a field path. Flat keys ("parent.child") are tried first,
// then nested maps keyed by each segment.
func (a AnswerSet) Lookup(path string) (any, bool) {
	if a == nil || path == "" {
		return nil, false
	}
	if value, ok := a[path]; ok {
		return value, true
	}

	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	switch nested := a[head].(type) {
	case map[string]any:
		return AnswerSet(nested).Lookup(rest)
	case AnswerSet:
		return nested.Lookup(rest)
	default:
		return nil, false
	}
}

// Value is Lookup without the presence flag.
func (a AnswerSet) Value(path string) any {
	value, _ := a.Lookup(path)
	return value
}

// Has reports whether the path has an entry (even an empty one).
func (a AnswerSet) Has(path string) bool {
	_, ok := a.Lookup(path)
	return ok
}

// Clone returns a copy; slices and maps are copied one level deep.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return AnswerSet{}
	}
	out := make(AnswerSet, len(a))
	for key, value := range a {
		out[key] = cloneValue(value)
	}
	return out
}

// Merge returns a new set holding a's entries overridden by other's.
func (a AnswerSet) Merge(other AnswerSet) AnswerSet {
	out := a.Clone()
	for key, value := range other {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		return append([]any(nil), v...)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out
	default:
		return value
	}
}
