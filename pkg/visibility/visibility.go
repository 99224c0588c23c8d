// Package visibility decides which nested sub-fields are live for the
// current answers and evaluates declarative visibility and routing rules.
package visibility

import (
	"slices"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

// Evaluator determines whether a rule holds for a field based on the
// current answers and optional extra context.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds every known answer
// while Extras carries additional scopes such as the step being submitted.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// IsOptionSelected reports whether optionValue is selected in value. Radios
// compare strictly, checkboxes test membership of the normalized value, and
// every other kind fails closed.
func IsOptionSelected(value any, optionValue string, kind model.FieldKind) bool {
	switch kind {
	case model.KindRadio:
		s, ok := value.(string)
		return ok && s == optionValue
	case model.KindCheckbox:
		return slices.Contains(values.NormalizeCheckbox(value), optionValue)
	case model.KindText, model.KindTextarea, model.KindCharacterCount, model.KindDate:
		return false
	default:
		return false
	}
}

// VisibleSubFields returns the sub-fields of every selected option, in
// option order. When two selected options declare a sub-field with the same
// name the later option wins; the entry keeps the slot of its first
// appearance.
func VisibleSubFields(field model.Field, value any) []model.Field {
	var out []model.Field
	index := make(map[string]int)
	for _, opt := range field.Options {
		if !IsOptionSelected(value, opt.Value, field.Kind) {
			continue
		}
		for _, sub := range opt.SubFields {
			if pos, exists := index[sub.Name]; exists {
				out[pos] = sub
				continue
			}
			index[sub.Name] = len(out)
			out = append(out, sub)
		}
	}
	return out
}

// Parent describes the owner of a nested field.
type Parent struct {
	Path        string
	Kind        model.FieldKind
	OptionValue string
}

// ShouldValidateField reports whether a field is live. Top-level fields
// (nil parent) always are. Nested fields read the parent value from the
// journey-wide answers first, falling back to the current step's body.
func ShouldValidateField(parent *Parent, step, all model.AnswerSet) bool {
	if parent == nil {
		return true
	}
	value, ok := all.Lookup(parent.Path)
	if !ok {
		value, _ = step.Lookup(parent.Path)
	}
	return IsOptionSelected(value, parent.OptionValue, parent.Kind)
}

// LiveAnswers collects the canonical values of every live field, including
// selected sub-fields at any depth, keyed by field path.
func LiveAnswers(fields []model.Field, step, all model.AnswerSet) model.AnswerSet {
	out := model.AnswerSet{}
	collectLive(fields, nil, step, all, out)
	return out
}

func collectLive(fields []model.Field, parent *Parent, step, all model.AnswerSet, out model.AnswerSet) {
	for _, field := range fields {
		if !ShouldValidateField(parent, step, all) {
			continue
		}
		path := field.Name
		if parent != nil {
			path = model.NestedFieldName(parent.Path, field.Name)
		}

		value := values.Resolve(field, path, step)
		if !values.IsBlank(field.Kind, value) {
			out[path] = value
		}
		for _, opt := range field.Options {
			collectLive(opt.SubFields, &Parent{Path: path, Kind: field.Kind, OptionValue: opt.Value}, step, all.Merge(out), out)
		}
	}
}
