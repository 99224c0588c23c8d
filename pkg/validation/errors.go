package validation

import (
	"maps"
	"slices"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

// ErrValidation marks a submission rejected by ValidateForm. Callers attach
// the ErrorMap through ErrorMap.Err.
var ErrValidation = errors.New("validation error", errors.CategoryValidation).
	WithTextCode("VALIDATION_FAILED")

// FieldError is the failure recorded for a single field path.
type FieldError struct {
	Message string `json:"message"`
	// ErroneousParts lists the date parts at fault, in day, month, year order.
	ErroneousParts []string `json:"erroneousParts,omitempty"`
}

// ErrorMap holds at most one FieldError per field path.
type ErrorMap map[string]FieldError

// setOnce records fe unless path already failed.
func (m ErrorMap) setOnce(path string, fe FieldError) bool {
	if _, exists := m[path]; exists {
		return false
	}
	m[path] = fe
	return true
}

// Has reports whether path failed.
func (m ErrorMap) Has(path string) bool {
	_, ok := m[path]
	return ok
}

// Message returns the message recorded for path.
func (m ErrorMap) Message(path string) string {
	return m[path].Message
}

// Anchor returns the element id a summary link should target: the field
// path, or the first erroneous date part input.
func (m ErrorMap) Anchor(path string) string {
	fe, ok := m[path]
	if !ok || len(fe.ErroneousParts) == 0 {
		return path
	}
	return values.DatePartName(path, fe.ErroneousParts[0])
}

// SummaryItem is one entry of the error summary box.
type SummaryItem struct {
	Text string `json:"text"`
	Href string `json:"href"`
	Path string `json:"path"`
}

// Summary lists errors in schema order, nested fields after their parent.
// Paths unknown to fields are appended in lexical order.
func (m ErrorMap) Summary(fields []model.Field) []SummaryItem {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(m))
	out := make([]SummaryItem, 0, len(m))
	add := func(path string) {
		fe, ok := m[path]
		if !ok {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, SummaryItem{Text: fe.Message, Href: "#" + m.Anchor(path), Path: path})
	}

	for _, path := range model.Paths(fields) {
		add(path)
	}
	for _, path := range slices.Sorted(maps.Keys(m)) {
		add(path)
	}
	return out
}

// Messages returns the map in the path -> messages shape used by renderers.
func (m ErrorMap) Messages() map[string][]string {
	out := make(map[string][]string, len(m))
	for path, fe := range m {
		out[path] = []string{fe.Message}
	}
	return out
}

// Err returns nil for an empty map, otherwise a clone of ErrValidation with
// the messages attached as metadata.
func (m ErrorMap) Err() error {
	if len(m) == 0 {
		return nil
	}
	meta := make(map[string]any, len(m))
	for path, fe := range m {
		meta[path] = fe.Message
	}
	return ErrValidation.Clone().WithMetadata(map[string]any{"fields": meta})
}
