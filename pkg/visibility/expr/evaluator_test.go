package expr

import (
	"sync"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func TestEvaluatorComparisons(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := visibility.Context{Values: map[string]any{
		"contact":       "email",
		"contact.email": "a@example.com",
		"age":           "31",
	}}

	tests := []struct {
		rule string
		want bool
	}{
		{rule: `contact == "email"`, want: true},
		{rule: `contact != "phone"`, want: true},
		{rule: `contact == "phone"`, want: false},
		{rule: `value("contact.email") == "a@example.com"`, want: true},
		{rule: `answered("contact.email") && !answered("contact.phone")`, want: true},
		{rule: `age == "31" || age == "32"`, want: true},
		{rule: `missing`, want: false},
		{rule: ``, want: true},
	}
	for _, tt := range tests {
		got, err := eval.Eval("field", tt.rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tt.rule, err)
		}
		if got != tt.want {
			t.Fatalf("Eval(%q) = %v, want %v", tt.rule, got, tt.want)
		}
	}
}

func TestEvaluatorNestedMemberAccess(t *testing.T) {
	t.Parallel()

	eval := New()
	ok, err := eval.Eval("field", `address.postcode == "SW1A 1AA"`, visibility.Context{
		Values: map[string]any{"address.postcode": "SW1A 1AA"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected dotted key to resolve as member access")
	}
}

func TestEvaluatorIncludes(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := visibility.Context{Values: map[string]any{
		"support": []any{map[string]any{"0": "wheelchair", "1": "hearing"}},
	}}

	ok, err := eval.Eval("support", `includes("support", "hearing")`, ctx)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected includes to normalize indexed checkbox values")
	}
}

func TestEvaluatorExtras(t *testing.T) {
	t.Parallel()

	eval := New()
	ok, err := eval.Eval("field", `extras.step == "contact"`, visibility.Context{
		Extras: map[string]any{"step": "contact"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected extras to be exposed")
	}
}

func TestEvaluatorCompileError(t *testing.T) {
	t.Parallel()

	eval := New()
	if err := eval.Compile(`contact == `); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := eval.Eval("field", `contact == `, visibility.Context{}); err == nil {
		t.Fatalf("expected eval to surface compile error")
	}
}

func TestEvaluatorDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	nested := map[string]any{"line1": "1 High St"}
	values := model.AnswerSet{"address": nested, "address.postcode": "AB1"}

	if _, err := New().Eval("field", `address.line1 != ""`, visibility.Context{Values: values}); err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if _, ok := nested["postcode"]; ok {
		t.Fatalf("unflatten wrote into caller map: %#v", nested)
	}
}

func TestEvaluatorConcurrentUse(t *testing.T) {
	t.Parallel()

	eval := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := eval.Eval("f", `contact == "email"`, visibility.Context{
				Values: map[string]any{"contact": "email"},
			}); err != nil {
				t.Errorf("Eval returned error: %v", err)
			}
		}()
	}
	wg.Wait()
}
