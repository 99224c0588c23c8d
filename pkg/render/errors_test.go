package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func contactFields() []model.Field {
	return []model.Field{
		{Name: "name", Kind: model.KindText},
		{
			Name: "contact",
			Kind: model.KindRadio,
			Options: []model.Option{
				{Value: "email", SubFields: []model.Field{{Name: "email", Kind: model.KindText}}},
				{Value: "phone", SubFields: []model.Field{{Name: "phone", Kind: model.KindText}}},
			},
		},
		{Name: "tags", Kind: model.KindCheckbox, Options: []model.Option{{Value: "a"}, {Value: "b"}}},
	}
}

func TestMapErrorPayload(t *testing.T) {
	payload := map[string][]string{
		"/body/name":               {"Name is required"},
		"body.contact.email":       {"Email invalid", "Email invalid"},
		"$.answers.tags[0]":        {"Tags must be unique"},
		"request.payload.contact":  {"Contact missing"},
		"non_field_errors":         {"Form level error"},
		"contact/phone/~1number":   {"Phone malformed"},
		"request/body/unknown":     {"Falls back to the form"},
		"":                         {"Unscoped"},
		"name":                     {"  "},
	}

	mapped := render.MapErrorPayload(contactFields(), payload)

	wantFields := map[string][]string{
		"name":          {"Name is required"},
		"contact.email": {"Email invalid"},
		"tags":          {"Tags must be unique"},
		"contact":       {"Contact missing"},
		"contact.phone": {"Phone malformed"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Falls back to the form", "Form level error", "Unscoped"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	want := validation.ErrorMap{
		"name":          {Message: "Name is required"},
		"contact.email": {Message: "Email invalid"},
		"tags":          {Message: "Tags must be unique"},
		"contact":       {Message: "Contact missing"},
		"contact.phone": {Message: "Phone malformed"},
	}
	if diff := cmp.Diff(want, mapped.ErrorMap()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
