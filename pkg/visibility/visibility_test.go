package visibility

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
)

func TestIsOptionSelected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  any
		option string
		kind   model.FieldKind
		want   bool
	}{
		{name: "radio match", value: "email", option: "email", kind: model.KindRadio, want: true},
		{name: "radio mismatch", value: "phone", option: "email", kind: model.KindRadio},
		{name: "radio non string", value: []string{"email"}, option: "email", kind: model.KindRadio},
		{name: "checkbox slice", value: []string{"a", "b"}, option: "b", kind: model.KindCheckbox, want: true},
		{name: "checkbox string", value: "b", option: "b", kind: model.KindCheckbox, want: true},
		{name: "checkbox indexed", value: []any{map[string]any{"0": "a", "1": "b"}}, option: "b", kind: model.KindCheckbox, want: true},
		{name: "checkbox nil", value: nil, option: "b", kind: model.KindCheckbox},
		{name: "text fails closed", value: "email", option: "email", kind: model.KindText},
		{name: "unknown fails closed", value: "email", option: "email", kind: model.FieldKind("select")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOptionSelected(tt.value, tt.option, tt.kind); got != tt.want {
				t.Fatalf("IsOptionSelected = %v, want %v", got, tt.want)
			}
		})
	}
}

func contactField() model.Field {
	return model.Field{
		Name: "contact",
		Kind: model.KindRadio,
		Options: []model.Option{
			{Value: "email", SubFields: []model.Field{{Name: "email", Kind: model.KindText}}},
			{Value: "phone", SubFields: []model.Field{{Name: "phone", Kind: model.KindText}}},
		},
	}
}

func TestVisibleSubFields_Radio(t *testing.T) {
	t.Parallel()

	got := names(VisibleSubFields(contactField(), "email"))
	if diff := cmp.Diff([]string{"email"}, got); diff != "" {
		t.Fatalf("visible sub-fields mismatch (-want +got):\n%s", diff)
	}
	if got := VisibleSubFields(contactField(), nil); len(got) != 0 {
		t.Fatalf("expected no sub-fields, got %v", names(got))
	}
}

func TestVisibleSubFields_LaterOptionWins(t *testing.T) {
	t.Parallel()

	field := model.Field{
		Name: "needs",
		Kind: model.KindCheckbox,
		Options: []model.Option{
			{Value: "a", SubFields: []model.Field{
				{Name: "detail", Kind: model.KindText, Hint: "from a"},
				{Name: "only-a", Kind: model.KindText},
			}},
			{Value: "b", SubFields: []model.Field{
				{Name: "detail", Kind: model.KindTextarea, Hint: "from b"},
			}},
		},
	}

	got := VisibleSubFields(field, []string{"a", "b"})
	if diff := cmp.Diff([]string{"detail", "only-a"}, names(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got[0].Hint != "from b" || got[0].Kind != model.KindTextarea {
		t.Fatalf("expected later option to win, got %+v", got[0])
	}
}

func TestShouldValidateField(t *testing.T) {
	t.Parallel()

	parent := &Parent{Path: "contact", Kind: model.KindRadio, OptionValue: "email"}

	if !ShouldValidateField(nil, nil, nil) {
		t.Fatalf("top-level fields must always be validated")
	}
	if !ShouldValidateField(parent, model.AnswerSet{"contact": "email"}, nil) {
		t.Fatalf("expected step value to select the option")
	}
	if ShouldValidateField(parent, model.AnswerSet{"contact": "phone"}, nil) {
		t.Fatalf("expected unselected option to hide the field")
	}
	if ShouldValidateField(parent, model.AnswerSet{"contact": "email"}, model.AnswerSet{"contact": "phone"}) {
		t.Fatalf("journey-wide answers must take precedence over the step")
	}
}

func TestLiveAnswers(t *testing.T) {
	t.Parallel()

	fields := []model.Field{contactField(), {Name: "notes", Kind: model.KindTextarea}}
	body := model.AnswerSet{
		"contact":       "email",
		"contact.email": "a@example.com",
		"contact.phone": "0123",
		"notes":         "",
	}

	got := LiveAnswers(fields, body, nil)
	want := model.AnswerSet{"contact": "email", "contact.email": "a@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("live answers mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluatorFunc(t *testing.T) {
	t.Parallel()

	var eval Evaluator = EvaluatorFunc(func(path, rule string, ctx Context) (bool, error) {
		return ctx.Values[path] == rule, nil
	})
	ok, err := eval.Eval("a", "b", Context{Values: map[string]any{"a": "b"}})
	if err != nil || !ok {
		t.Fatalf("EvaluatorFunc did not delegate: ok=%v err=%v", ok, err)
	}
}

func names(fields []model.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
