package model

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldKind is the closed set of field kinds the engine understands.
type FieldKind string

const (
	KindText           FieldKind = "text"
	KindTextarea       FieldKind = "textarea"
	KindCharacterCount FieldKind = "character-count"
	KindRadio          FieldKind = "radio"
	KindCheckbox       FieldKind = "checkbox"
	KindDate           FieldKind = "date"
)

// Kinds lists every supported kind in declaration order.
func Kinds() []FieldKind {
	return []FieldKind{KindText, KindTextarea, KindCharacterCount, KindRadio, KindCheckbox, KindDate}
}

// Valid reports whether k is one of the supported kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindTextarea, KindCharacterCount, KindRadio, KindCheckbox, KindDate:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the kind carries selectable options.
func (k FieldKind) HasOptions() bool {
	return k == KindRadio || k == KindCheckbox
}

// IsTextual reports whether the kind accepts free text.
func (k FieldKind) IsTextual() bool {
	return k == KindText || k == KindTextarea || k == KindCharacterCount
}

// ParseFieldKind converts raw input into a FieldKind.
func ParseFieldKind(raw string) (FieldKind, error) {
	kind := FieldKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("model: unknown field kind %q", raw)
	}
	return kind, nil
}

// Scope is the input handed to computed required flags: the answers of the
// step being submitted and every answer known for the journey so far.
type Scope struct {
	Step AnswerSet
	All  AnswerSet
}

// Flag is a literal or computed boolean, used for required-ness.
type Flag = Dynamic[bool, Scope]

// Text is a literal or computed display string. Computed variants receive
// the flattened translations map.
type Text = Dynamic[string, map[string]string]

// ValueRule validates a single field. It returns an empty string when the
// value is acceptable, otherwise an error token.
type ValueRule func(value any, all AnswerSet) string

// CrossRule validates a field against other answers. Same return contract
// as ValueRule.
type CrossRule func(value any, step, all AnswerSet) string

// Option is a selectable value of a radio or checkbox field.
type Option struct {
	Value     string
	Text      string
	TextFunc  Text
	TextKey   string
	SubFields []Field
}

// Field is a node in the form schema tree.
type Field struct {
	Name          string
	Kind          FieldKind
	Required      Flag
	Pattern       *regexp.Regexp
	PatternSource string
	MaxLength     int
	Options       []Option
	Validator     ValueRule
	Validate      CrossRule
	NoFutureDate  bool

	Label      string
	LabelFunc  Text
	LabelKey   string
	Hint       string
	HintFunc   Text
	HintKey    string
	Classes    string
	Attributes map[string]string

	// Fallback literals used when no per-field translation exists.
	ErrorMessage     string
	PatternMessage   string
	MaxLengthMessage string
}

// Check verifies the structural integrity of the field and its sub-fields.
func (f Field) Check() error {
	return f.validate("")
}

func (f Field) validate(parent string) error {
	name := f.Name
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("model: field under %q has no name", parent)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("model: field name %q has surrounding whitespace", name)
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("model: field name %q must not contain '.'", name)
	}

	path := name
	if parent != "" {
		path = NestedFieldName(parent, name)
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("model: field %q has unknown kind %q", path, f.Kind)
	}
	if f.Kind.HasOptions() && len(f.Options) == 0 {
		return fmt.Errorf("model: %s field %q declares no options", f.Kind, path)
	}
	if !f.Kind.HasOptions() && len(f.Options) > 0 {
		return fmt.Errorf("model: %s field %q cannot declare options", f.Kind, path)
	}
	if f.Pattern != nil && !f.Kind.IsTextual() {
		return fmt.Errorf("model: pattern is only supported on text fields (%q)", path)
	}
	if f.MaxLength < 0 {
		return fmt.Errorf("model: field %q has a negative maxLength", path)
	}
	if f.NoFutureDate && f.Kind != KindDate {
		return fmt.Errorf("model: noFutureDate is only supported on date fields (%q)", path)
	}

	seen := make(map[string]struct{}, len(f.Options))
	for _, opt := range f.Options {
		if _, dup := seen[opt.Value]; dup {
			return fmt.Errorf("model: field %q declares option %q twice", path, opt.Value)
		}
		seen[opt.Value] = struct{}{}
		for _, sub := range opt.SubFields {
			if err := sub.validate(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// FieldByName returns the first top-level field with the given name.
func FieldByName(fields []Field, name string) (Field, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Paths lists every field path declared by fields, parents before their
// sub-fields, in schema order. Sub-fields shared by several options are
// reported once.
func Paths(fields []Field) []string {
	var out []string
	seen := make(map[string]struct{})
	collectPaths(fields, "", seen, &out)
	return out
}

func collectPaths(fields []Field, parent string, seen map[string]struct{}, out *[]string) {
	for _, field := range fields {
		path := field.Name
		if parent != "" {
			path = NestedFieldName(parent, field.Name)
		}
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			*out = append(*out, path)
		}
		for _, opt := range field.Options {
			collectPaths(opt.SubFields, path, seen, out)
		}
	}
}
