package values_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

func TestNormalizeCheckbox(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  []string
	}{
		{name: "nil", input: nil, want: []string{}},
		{name: "empty string", input: "", want: []string{}},
		{name: "blank string", input: "  ", want: []string{}},
		{name: "single string", input: "email", want: []string{"email"}},
		{name: "string slice", input: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "any slice", input: []any{"a", 3, "b"}, want: []string{"a", "b"}},
		{
			name: "indexed objects",
			input: []any{
				map[string]any{"1": "second", "0": "first", "10": "last", "2": 7},
				map[string]any{"0": "third"},
			},
			want: []string{"first", "second", "last", "third"},
		},
		{name: "unsupported", input: 42, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, values.NormalizeCheckbox(tc.input)); diff != "" {
				t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeCheckbox_Idempotent(t *testing.T) {
	inputs := []any{nil, "x", []string{"a", "b"}, []any{map[string]any{"0": "a", "1": "b"}}}
	for _, input := range inputs {
		once := values.NormalizeCheckbox(input)
		twice := values.NormalizeCheckbox(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("normalize not idempotent for %#v (-once +twice):\n%s", input, diff)
		}
	}
}

func TestResolveDate_Precedence(t *testing.T) {
	body := model.AnswerSet{
		"dob-day":   "01",
		"dob-month": "02",
		"dob-year":  "2000",
	}

	saved := map[string]any{"day": "9", "month": "9", "year": "1999"}
	if got := values.ResolveDate("dob", saved, body); got != (model.DateValue{Day: "9", Month: "9", Year: "1999"}) {
		t.Fatalf("expected structured saved value, got %+v", got)
	}

	if got := values.ResolveDate("dob", nil, body); got != (model.DateValue{Day: "01", Month: "02", Year: "2000"}) {
		t.Fatalf("expected discrete parts, got %+v", got)
	}

	if got := values.ResolveDate("dob", nil, model.AnswerSet{}); !got.IsBlank() {
		t.Fatalf("expected blank date, got %+v", got)
	}
}

func TestResolve_PerKind(t *testing.T) {
	body := model.AnswerSet{
		"name":             "Ada",
		"tags":             "one",
		"when-day":         "3",
		"contact.email":    "ada@example.com",
		"contact.when-day": "4",
	}

	if got := values.Resolve(model.Field{Name: "name", Kind: model.KindText}, "name", body); got != "Ada" {
		t.Fatalf("text mismatch: %#v", got)
	}
	if diff := cmp.Diff([]string{"one"}, values.Resolve(model.Field{Name: "tags", Kind: model.KindCheckbox}, "tags", body)); diff != "" {
		t.Fatalf("checkbox mismatch (-want +got):\n%s", diff)
	}
	blank := values.Resolve(model.Field{Name: "tags", Kind: model.KindCheckbox}, "tags", model.AnswerSet{"tags": " "})
	if !values.IsBlank(model.KindCheckbox, blank) {
		t.Fatalf("blank checkbox submission should resolve to no selection, got %#v", blank)
	}
	if got := values.Resolve(model.Field{Name: "when", Kind: model.KindDate}, "when", body); got != (model.DateValue{Day: "3"}) {
		t.Fatalf("date mismatch: %#v", got)
	}
	if got := values.Resolve(model.Field{Name: "email", Kind: model.KindText}, "contact.email", body); got != "ada@example.com" {
		t.Fatalf("nested text mismatch: %#v", got)
	}
	if got := values.Resolve(model.Field{Name: "missing", Kind: model.KindText}, "missing", body); got != nil {
		t.Fatalf("expected nil for missing text, got %#v", got)
	}
}

func TestIsBlank(t *testing.T) {
	if !values.IsBlank(model.KindText, "") || values.IsBlank(model.KindText, "   ") {
		t.Fatalf("text blank check must not trim")
	}
	if !values.IsBlank(model.KindCheckbox, "  ") || !values.IsBlank(model.KindCheckbox, []string{}) {
		t.Fatalf("checkbox blank check mismatch")
	}
	if !values.IsBlank(model.KindDate, model.DateValue{}) || values.IsBlank(model.KindDate, model.DateValue{Year: "2000"}) {
		t.Fatalf("date blank check mismatch")
	}
}
