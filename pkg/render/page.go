package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// ErrorSummary is the box listing every failure of a submission.
type ErrorSummary struct {
	Title string                   `json:"title"`
	Items []validation.SummaryItem `json:"items"`
}

// BuildErrorSummary returns nil when errs is empty. Items follow schema
// order and link to the failing input.
func BuildErrorSummary(fields []model.Field, errs validation.ErrorMap, loc i18n.Localizer) *ErrorSummary {
	items := errs.Summary(fields)
	if len(items) == 0 {
		return nil
	}
	return &ErrorSummary{
		Title: message(loc, "errorSummary.title", "There is a problem", nil),
		Items: items,
	}
}

// PageOptions carries the per-request data of a rendered step.
type PageOptions struct {
	Title string
	// Action is the URL the form posts to. Empty posts back to the page.
	Action  string
	BackURL string
	// Hidden inputs such as CSRF tokens or the record version.
	Hidden       map[string]string
	HiddenFields []HiddenField
	// Summary overrides the summary built from the error map.
	Summary *ErrorSummary
	// FormErrors are listed after the field errors without a link.
	FormErrors []string
}

type pageView struct {
	Title      string `json:"title"`
	Action     string `json:"action"`
	Method     string `json:"method"`
	BackURL    string `json:"backUrl,omitempty"`
	BackText   string `json:"backText"`
	SubmitText string `json:"submitText"`
	Locale     string `json:"locale"`
	Style      string `json:"style,omitempty"`
}

// RenderComponent renders a single component through its partial.
func (b *Builder) RenderComponent(fc FieldComponent) (string, error) {
	name := b.partial(PartialKey(fc.ComponentType))
	out, err := b.templates.RenderTemplate(name, map[string]any{
		"component": fc.Component,
		"path":      fc.Path,
	})
	if err != nil {
		return "", fmt.Errorf("render: component %q: %w", fc.Path, err)
	}
	return out, nil
}

// RenderErrorSummary renders summary, or nothing for a nil summary.
func (b *Builder) RenderErrorSummary(summary *ErrorSummary) (string, error) {
	if summary == nil {
		return "", nil
	}
	out, err := b.templates.RenderTemplate(b.partial(PartialErrorSummary), map[string]any{
		"summary": summary,
	})
	if err != nil {
		return "", fmt.Errorf("render: error summary: %w", err)
	}
	return out, nil
}

// RenderPage builds and renders a full step: error summary, components,
// hidden inputs and submit button.
func (b *Builder) RenderPage(fields []model.Field, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer, opts PageOptions) (string, error) {
	components, err := b.Build(fields, vals, errs, loc)
	if err != nil {
		return "", err
	}
	html := make([]string, 0, len(components))
	for _, fc := range components {
		out, err := b.RenderComponent(fc)
		if err != nil {
			return "", err
		}
		html = append(html, out)
	}

	summary := opts.Summary
	if summary == nil {
		summary = BuildErrorSummary(fields, errs, loc)
	}
	summary = withFormErrors(summary, opts.FormErrors, loc)
	summaryHTML, err := b.RenderErrorSummary(summary)
	if err != nil {
		return "", err
	}

	view := pageView{
		Title:      opts.Title,
		Action:     opts.Action,
		Method:     "post",
		BackURL:    opts.BackURL,
		BackText:   message(loc, "buttons.back", "Back", nil),
		SubmitText: message(loc, "buttons.continue", "Continue", nil),
		Locale:     loc.Locale(),
	}
	if b.theme != nil {
		view.Style = cssVarsStyle(b.theme.CSSVars)
	}

	out, err := b.templates.RenderTemplate(b.partial(PartialPage), map[string]any{
		"page":       view,
		"summary":    summaryHTML,
		"components": html,
		"hidden":     SortedHiddenFields(MergeHiddenFields(opts.Hidden, opts.HiddenFields...)),
	})
	if err != nil {
		return "", fmt.Errorf("render: page: %w", err)
	}
	return out, nil
}

func withFormErrors(summary *ErrorSummary, formErrors []string, loc i18n.Localizer) *ErrorSummary {
	if len(formErrors) == 0 {
		return summary
	}
	out := &ErrorSummary{Title: message(loc, "errorSummary.title", "There is a problem", nil)}
	if summary != nil {
		out.Title = summary.Title
		out.Items = append(out.Items, summary.Items...)
	}
	for _, msg := range formErrors {
		out.Items = append(out.Items, validation.SummaryItem{Text: msg})
	}
	return out
}

func (b *Builder) renderAll(components []FieldComponent) (string, error) {
	var sb strings.Builder
	for _, fc := range components {
		out, err := b.RenderComponent(fc)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// partial returns the template for key. A theme partial the engine cannot
// load falls back to the bundled template.
func (b *Builder) partial(key string) string {
	name := b.partials[key]
	def := DefaultPartials()[key]
	if name == def {
		return name
	}
	if lookup, ok := b.templates.(rendertemplate.Lookup); ok && !lookup.HasTemplate(name) {
		b.logger.Warn("render: theme partial %s (%s) not found, using %s", key, name, def)
		return def
	}
	return name
}
