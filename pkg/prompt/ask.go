// Package prompt asks a journey step on the terminal. Fields map onto
// survey prompts and answers come back keyed by input name, the same shape
// an HTML form posts.
package prompt

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/values"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// AskStep prompts every field of a step. vals supplies defaults, typically
// the saved answers or the last rejected body, and errs messages to show
// before the offending prompt. Sub-fields are asked for selected options
// only.
func AskStep(ctx context.Context, d Driver, fields []model.Field, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer) (model.AnswerSet, error) {
	a := asker{driver: d, vals: vals, errs: errs, loc: loc, body: model.AnswerSet{}}
	if err := a.fields(ctx, fields, ""); err != nil {
		return nil, err
	}
	return a.body, nil
}

// maxPageSize caps how many options a select shows at once.
const maxPageSize = 12

func pageSize(options []string) int {
	return min(len(options), maxPageSize)
}

type asker struct {
	driver Driver
	vals   model.AnswerSet
	errs   validation.ErrorMap
	loc    i18n.Localizer
	body   model.AnswerSet
}

func (a *asker) fields(ctx context.Context, fields []model.Field, parent string) error {
	for _, field := range fields {
		if err := a.field(ctx, field, model.NestedFieldName(parent, field.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (a *asker) field(ctx context.Context, field model.Field, path string) error {
	if msg := a.errs.Message(path); msg != "" {
		if err := a.driver.Info(ctx, "! "+msg); err != nil {
			return err
		}
	}

	label := render.ResolveLabel(field, a.loc)
	hint := render.ResolveHint(field, a.loc)
	saved := values.Resolve(field, path, a.vals)

	switch field.Kind {
	case model.KindText:
		out, err := a.driver.Input(ctx, InputConfig{Message: label, Help: hint, Default: values.String(saved)})
		if err != nil {
			return err
		}
		a.body[path] = out
	case model.KindTextarea, model.KindCharacterCount:
		if field.MaxLength > 0 {
			hint = strings.TrimSpace(hint + fmt.Sprintf(" (%d characters maximum)", field.MaxLength))
		}
		out, err := a.driver.TextArea(ctx, TextAreaConfig{Message: label, Help: hint, Default: values.String(saved)})
		if err != nil {
			return err
		}
		a.body[path] = out
	case model.KindRadio:
		return a.radio(ctx, field, path, label, hint, saved)
	case model.KindCheckbox:
		return a.checkbox(ctx, field, path, label, hint, saved)
	case model.KindDate:
		return a.date(ctx, path, label, hint, saved)
	default:
		return fmt.Errorf("prompt: field %q has unsupported kind %q", path, field.Kind)
	}
	return nil
}

func (a *asker) radio(ctx context.Context, field model.Field, path, label, hint string, saved any) error {
	texts := a.optionTexts(field)
	def := 0
	for i, opt := range field.Options {
		if visibility.IsOptionSelected(saved, opt.Value, field.Kind) {
			def = i
		}
	}
	idx, err := a.driver.Select(ctx, SelectConfig{Message: label, Help: hint, Options: texts, DefaultIndex: def, PageSize: pageSize(texts)})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(field.Options) {
		return nil
	}
	value := field.Options[idx].Value
	a.body[path] = value
	return a.fields(ctx, visibility.VisibleSubFields(field, value), path)
}

func (a *asker) checkbox(ctx context.Context, field model.Field, path, label, hint string, saved any) error {
	texts := a.optionTexts(field)
	var defaults []int
	for i, opt := range field.Options {
		if visibility.IsOptionSelected(saved, opt.Value, field.Kind) {
			defaults = append(defaults, i)
		}
	}
	picked, err := a.driver.MultiSelect(ctx, SelectConfig{Message: label, Help: hint, Options: texts, Defaults: defaults, PageSize: pageSize(texts)})
	if err != nil {
		return err
	}
	selected := make([]string, 0, len(picked))
	for _, idx := range slices.Sorted(slices.Values(picked)) {
		if idx >= 0 && idx < len(field.Options) {
			selected = append(selected, field.Options[idx].Value)
		}
	}
	a.body[path] = selected
	return a.fields(ctx, visibility.VisibleSubFields(field, selected), path)
}

func (a *asker) date(ctx context.Context, path, label, hint string, saved any) error {
	date, _ := values.AsDate(saved)
	if err := a.driver.Info(ctx, label); err != nil {
		return err
	}
	parts := []struct {
		name, label, def string
	}{
		{values.PartDay, "Day", date.Day},
		{values.PartMonth, "Month", date.Month},
		{values.PartYear, "Year", date.Year},
	}
	for _, part := range parts {
		msg := part.label
		if text, ok := a.loc.Text("date.labels." + part.name); ok {
			msg = text
		}
		out, err := a.driver.Input(ctx, InputConfig{Message: msg, Help: hint, Default: part.def})
		if err != nil {
			return err
		}
		a.body[values.DatePartName(path, part.name)] = out
	}
	return nil
}

func (a *asker) optionTexts(field model.Field) []string {
	out := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		out = append(out, render.ResolveOptionText(field, opt, a.loc))
	}
	return out
}
