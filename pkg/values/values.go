// Package values normalizes raw submitted answers into the canonical shape
// each field kind expects: []string for checkboxes, DateValue for dates and
// plain strings for everything else.
package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Date part suffixes used for discrete day/month/year inputs.
const (
	PartDay   = "day"
	PartMonth = "month"
	PartYear  = "year"
)

// DateParts lists the parts in display order.
func DateParts() []string {
	return []string{PartDay, PartMonth, PartYear}
}

// DatePartName returns the input name for one part of a date field.
func DatePartName(name, part string) string {
	return name + "-" + part
}

// NormalizeCheckbox converts any transport encoding of a multi-select value
// into a []string. The result is never nil; a blank string selects nothing.
func NormalizeCheckbox(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}
		}
		return []string{v}
	case []string:
		return append([]string{}, v...)
	case []any:
		if len(v) == 0 {
			return []string{}
		}
		if isIndexedObject(v[0]) {
			return flattenIndexedObjects(v)
		}
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []map[string]any:
		items := make([]any, len(v))
		for idx := range v {
			items[idx] = v[idx]
		}
		return flattenIndexedObjects(items)
	default:
		return []string{}
	}
}

// Some transports decode indexed inputs ("field[0]", "field[1]") into a list
// of objects keyed by index. Collect every string property in index order.
func isIndexedObject(value any) bool {
	switch value.(type) {
	case map[string]any, map[string]string:
		return true
	default:
		return false
	}
}

func flattenIndexedObjects(items []any) []string {
	out := []string{}
	for _, item := range items {
		switch obj := item.(type) {
		case map[string]any:
			for _, key := range sortedIndexKeys(obj) {
				if s, ok := obj[key].(string); ok {
					out = append(out, s)
				}
			}
		case map[string]string:
			generic := make(map[string]any, len(obj))
			for key, value := range obj {
				generic[key] = value
			}
			for _, key := range sortedIndexKeys(generic) {
				out = append(out, obj[key])
			}
		}
	}
	return out
}

func sortedIndexKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// ResolveDate returns the date for name, preferring an already structured
// saved value, then the discrete "<name>-day/-month/-year" keys of body.
func ResolveDate(name string, saved any, body model.AnswerSet) model.DateValue {
	if date, ok := AsDate(saved); ok {
		return date
	}

	day, hasDay := body.Lookup(DatePartName(name, PartDay))
	month, hasMonth := body.Lookup(DatePartName(name, PartMonth))
	year, hasYear := body.Lookup(DatePartName(name, PartYear))
	if hasDay || hasMonth || hasYear {
		return model.DateValue{
			Day:   String(day),
			Month: String(month),
			Year:  String(year),
		}
	}
	return model.DateValue{}
}

// AsDate converts structured representations into a DateValue.
func AsDate(value any) (model.DateValue, bool) {
	switch v := value.(type) {
	case model.DateValue:
		return v, true
	case *model.DateValue:
		if v == nil {
			return model.DateValue{}, false
		}
		return *v, true
	case map[string]any:
		if !hasAnyDatePart(func(key string) bool { _, ok := v[key]; return ok }) {
			return model.DateValue{}, false
		}
		return model.DateValue{Day: String(v[PartDay]), Month: String(v[PartMonth]), Year: String(v[PartYear])}, true
	case map[string]string:
		if !hasAnyDatePart(func(key string) bool { _, ok := v[key]; return ok }) {
			return model.DateValue{}, false
		}
		return model.DateValue{Day: v[PartDay], Month: v[PartMonth], Year: v[PartYear]}, true
	default:
		return model.DateValue{}, false
	}
}

func hasAnyDatePart(has func(string) bool) bool {
	return has(PartDay) || has(PartMonth) || has(PartYear)
}

// String renders scalar answers; slices yield their first element.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case []any:
		if len(v) == 0 {
			return ""
		}
		return String(v[0])
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Resolve returns the canonical value of field at path. For top-level
// fields path equals the field name.
func Resolve(field model.Field, path string, body model.AnswerSet) any {
	raw, _ := body.Lookup(path)
	switch field.Kind {
	case model.KindCheckbox:
		return NormalizeCheckbox(raw)
	case model.KindDate:
		return ResolveDate(path, raw, body)
	case model.KindText, model.KindTextarea, model.KindCharacterCount, model.KindRadio:
		if raw == nil {
			return nil
		}
		return String(raw)
	default:
		return raw
	}
}

// IsBlank reports whether value counts as "not answered" for kind. Text is
// not trimmed: a whitespace-only string is an answer.
func IsBlank(kind model.FieldKind, value any) bool {
	switch kind {
	case model.KindCheckbox:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s) == ""
		}
		return len(NormalizeCheckbox(value)) == 0
	case model.KindDate:
		date, ok := AsDate(value)
		return !ok || date.IsBlank()
	case model.KindText, model.KindTextarea, model.KindCharacterCount, model.KindRadio:
		return IsEmpty(value)
	default:
		return IsEmpty(value)
	}
}

// IsEmpty is the kind-agnostic emptiness check used for dependency gating.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case model.DateValue:
		return v.IsBlank()
	case map[string]any:
		if date, ok := AsDate(v); ok {
			return date.IsBlank()
		}
		return len(v) == 0
	default:
		return false
	}
}
