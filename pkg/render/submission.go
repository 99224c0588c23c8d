package render

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// VersionInput is the hidden input carrying the record version a page was
// rendered from.
const VersionInput = "_version"

// HiddenField is a hidden input emitted after the visible components.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken carries a request forgery token under the caller's input name
// (for example "_csrf").
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries the record version under VersionInput.
func VersionField(version int) HiddenField {
	return HiddenField{Name: VersionInput, Value: strconv.Itoa(version)}
}

// ParseVersion reads VersionInput back from a submitted value. Missing or
// malformed input yields 0 and false.
func ParseVersion(raw any) (int, bool) {
	s, ok := raw.(string)
	if !ok {
		if list, isList := raw.([]string); isList && len(list) > 0 {
			s, ok = list[0], true
		}
	}
	if !ok {
		return 0, false
	}
	version, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || version < 0 {
		return 0, false
	}
	return version, true
}

// MergeHiddenFields returns a copy of base with fields applied. Blank names
// are dropped and later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(fields))
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(name) == "" {
			continue
		}
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}
