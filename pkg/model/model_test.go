package model_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
)

func TestNestedFieldName_RoundTrip(t *testing.T) {
	path := model.NestedFieldName("contactMethod", "emailAddress")
	if path != "contactMethod.emailAddress" {
		t.Fatalf("unexpected nested name %q", path)
	}

	parent, child, ok := model.ParseNestedFieldName(path)
	if !ok || parent != "contactMethod" || child != "emailAddress" {
		t.Fatalf("parse mismatch: %q %q %v", parent, child, ok)
	}
}

func TestNestedFieldName_KeepsSegmentsVerbatim(t *testing.T) {
	path := model.NestedFieldName("a", " b")
	parent, child, ok := model.ParseNestedFieldName(path)
	if !ok || parent != "a" || child != " b" {
		t.Fatalf("parse mismatch for %q: %q %q %v", path, parent, child, ok)
	}
}

func TestParseNestedFieldName_RejectsZeroOrManyDots(t *testing.T) {
	for _, path := range []string{"plain", "a.b.c", ".child", "parent."} {
		if _, _, ok := model.ParseNestedFieldName(path); ok {
			t.Fatalf("expected %q to be rejected", path)
		}
	}
}

func TestDynamic_ResolveRecoversPanics(t *testing.T) {
	flag := model.RequiredWhen(func(model.Scope) bool { panic("boom") })

	got, err := flag.Resolve(model.Scope{})
	if got {
		t.Fatalf("expected panicking flag to resolve false")
	}
	var panicErr *model.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

func TestDynamic_ComputedSeesCurrentAnswers(t *testing.T) {
	flag := model.RequiredWhen(func(s model.Scope) bool { return s.All["hasPet"] == "yes" })

	if got, _ := flag.Resolve(model.Scope{All: model.AnswerSet{"hasPet": "no"}}); got {
		t.Fatalf("expected not required")
	}
	if got, _ := flag.Resolve(model.Scope{All: model.AnswerSet{"hasPet": "yes"}}); !got {
		t.Fatalf("expected required once the answer changes")
	}
	if got, _ := model.Required(true).Resolve(model.Scope{}); !got {
		t.Fatalf("expected literal true")
	}
}

func TestAnswerSet_LookupFlatThenNested(t *testing.T) {
	answers := model.AnswerSet{
		"contactMethod.emailAddress": "flat@example.com",
		"address":                    map[string]any{"postcode": "SW1A 1AA"},
	}

	if got := answers.Value("contactMethod.emailAddress"); got != "flat@example.com" {
		t.Fatalf("flat lookup mismatch: %v", got)
	}
	if got := answers.Value("address.postcode"); got != "SW1A 1AA" {
		t.Fatalf("nested lookup mismatch: %v", got)
	}
	if answers.Has("address.missing") {
		t.Fatalf("expected missing path")
	}
}

func TestAnswerSet_MergeDoesNotMutate(t *testing.T) {
	base := model.AnswerSet{"a": "1", "tags": []string{"x"}}
	merged := base.Merge(model.AnswerSet{"a": "2"})

	if base["a"] != "1" {
		t.Fatalf("base mutated: %v", base)
	}
	want := model.AnswerSet{"a": "2", "tags": []string{"x"}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestField_Check(t *testing.T) {
	valid := model.Field{
		Name: "contactMethod",
		Kind: model.KindRadio,
		Options: []model.Option{
			{Value: "email", SubFields: []model.Field{{Name: "emailAddress", Kind: model.KindText}}},
			{Value: "phone"},
		},
	}
	if err := valid.Check(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]model.Field{
		"unknown kind":    {Name: "x", Kind: "slider"},
		"missing options": {Name: "x", Kind: model.KindCheckbox},
		"dotted name":     {Name: "a.b", Kind: model.KindText},
		"padded name":     {Name: " b", Kind: model.KindText},
		"pattern on date": {Name: "d", Kind: model.KindDate, Pattern: regexp.MustCompile(`\d`)},
		"bad sub-field": {Name: "r", Kind: model.KindRadio, Options: []model.Option{
			{Value: "a", SubFields: []model.Field{{Name: "", Kind: model.KindText}}},
		}},
	}
	for name, field := range cases {
		if err := field.Check(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestPaths_ParentsBeforeSubFields(t *testing.T) {
	fields := []model.Field{
		{Name: "contactMethod", Kind: model.KindRadio, Options: []model.Option{
			{Value: "email", SubFields: []model.Field{{Name: "address", Kind: model.KindText}}},
			{Value: "post", SubFields: []model.Field{{Name: "address", Kind: model.KindTextarea}}},
		}},
		{Name: "age", Kind: model.KindText},
	}

	want := []string{"contactMethod", "contactMethod.address", "age"}
	if diff := cmp.Diff(want, model.Paths(fields)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFieldKind(t *testing.T) {
	kind, err := model.ParseFieldKind(" Character-Count ")
	if err != nil || kind != model.KindCharacterCount {
		t.Fatalf("unexpected parse result %q %v", kind, err)
	}
	if _, err := model.ParseFieldKind("select"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
