package render

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/values"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Option configures a Builder.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	policy           *bluemonday.Policy
	logger           logging.Logger
}

// WithTemplatesFS replaces the bundled templates.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a template engine. Templates options are
// ignored when an engine is supplied.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme applies theme partial overrides and CSS variables.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithPolicy replaces the UGC policy used to sanitise hints.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithLogger sets the logger used for failing label functions and missing
// theme partials.
func WithLogger(logger logging.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Builder turns field schemas into component bags and renders them.
type Builder struct {
	templates rendertemplate.TemplateRenderer
	partials  map[string]string
	theme     *theme.RendererConfig
	policy    *bluemonday.Policy
	logger    logging.Logger
}

// NewBuilder constructs a Builder over the bundled templates unless options
// say otherwise.
func NewBuilder(options ...Option) (*Builder, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("render: configure template renderer: %w", err)
		}
		renderer = engine
	}

	partials := DefaultPartials()
	if cfg.theme != nil {
		for key, name := range cfg.theme.Partials {
			if strings.TrimSpace(name) != "" {
				partials[key] = name
			}
		}
	}

	policy := cfg.policy
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}

	return &Builder{
		templates: renderer,
		partials:  partials,
		theme:     cfg.theme,
		policy:    policy,
		logger:    logging.Normalize(cfg.logger),
	}, nil
}

// Build emits one component per top-level field. vals holds saved or
// submitted answers keyed by field path; errs carries the failures of the
// last submission. Option sub-fields are rendered into the owning item's
// Conditional, whether or not the option is currently selected.
func (b *Builder) Build(fields []model.Field, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer) ([]FieldComponent, error) {
	return b.build(fields, "", vals, errs, loc)
}

func (b *Builder) build(fields []model.Field, parent string, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer) ([]FieldComponent, error) {
	out := make([]FieldComponent, 0, len(fields))
	for _, field := range fields {
		fc, err := b.component(field, model.NestedFieldName(parent, field.Name), vals, errs, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, nil
}

func (b *Builder) component(field model.Field, path string, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer) (FieldComponent, error) {
	ct, err := ComponentTypeFor(field.Kind)
	if err != nil {
		return FieldComponent{}, fmt.Errorf("render: field %q: %w", path, err)
	}

	c := Component{
		ID:           path,
		Name:         path,
		Label:        labelText(field, loc, b.logger),
		ErrorMessage: errs.Message(path),
		Classes:      field.Classes,
		Attributes:   cloneAttributes(field.Attributes),
	}
	if hint := hintText(field, loc, b.logger); hint != "" {
		c.Hint = b.policy.Sanitize(hint)
	}
	c.DescribedBy = describedBy(c)

	value := values.Resolve(field, path, vals)
	switch ct {
	case ComponentInput, ComponentTextarea:
		c.Value = values.String(value)
		c.MaxLength = field.MaxLength
	case ComponentCharacterCount:
		c.Value = values.String(value)
		c.MaxLength = field.MaxLength
		c.Remaining = remainingText(loc, field.MaxLength, c.Value)
		if c.DescribedBy == "" {
			c.DescribedBy = path + "-info"
		} else {
			c.DescribedBy += " " + path + "-info"
		}
	case ComponentRadios, ComponentCheckboxes:
		items, err := b.items(field, path, value, vals, errs, loc)
		if err != nil {
			return FieldComponent{}, err
		}
		c.Items = items
	case ComponentDateInput:
		date, _ := values.AsDate(value)
		c.DateItems = dateItems(path, date, errs, loc)
	}

	return FieldComponent{Path: path, ComponentType: ct, Component: c}, nil
}

func (b *Builder) items(field model.Field, path string, value any, vals model.AnswerSet, errs validation.ErrorMap, loc i18n.Localizer) ([]Item, error) {
	items := make([]Item, 0, len(field.Options))
	for i, opt := range field.Options {
		item := Item{
			ID:      itemID(path, i),
			Value:   opt.Value,
			Text:    optionText(field, opt, loc, b.logger),
			Checked: visibility.IsOptionSelected(value, opt.Value, field.Kind),
		}
		if len(opt.SubFields) > 0 {
			subs, err := b.build(opt.SubFields, path, vals, errs, loc)
			if err != nil {
				return nil, err
			}
			html, err := b.renderAll(subs)
			if err != nil {
				return nil, fmt.Errorf("render: conditional for %s=%s: %w", path, opt.Value, err)
			}
			item.Conditional = &Conditional{HTML: html}
		}
		items = append(items, item)
	}
	return items, nil
}

// itemID gives the first item the field path itself so error summary links
// land on it.
func itemID(path string, index int) string {
	if index == 0 {
		return path
	}
	return path + "-" + strconv.Itoa(index+1)
}

func describedBy(c Component) string {
	var ids []string
	if c.Hint != "" {
		ids = append(ids, c.ID+"-hint")
	}
	if c.ErrorMessage != "" {
		ids = append(ids, c.ID+"-error")
	}
	return strings.Join(ids, " ")
}

func dateItems(path string, date model.DateValue, errs validation.ErrorMap, loc i18n.Localizer) []DateItem {
	fe, failed := errs[path]
	invalid := func(part string) bool {
		if !failed {
			return false
		}
		if len(fe.ErroneousParts) == 0 {
			return true
		}
		for _, p := range fe.ErroneousParts {
			if p == part {
				return true
			}
		}
		return false
	}

	parts := []struct {
		name, value, label, width string
	}{
		{values.PartDay, date.Day, "Day", "govuk-input--width-2"},
		{values.PartMonth, date.Month, "Month", "govuk-input--width-2"},
		{values.PartYear, date.Year, "Year", "govuk-input--width-4"},
	}
	out := make([]DateItem, 0, len(parts))
	for _, part := range parts {
		name := values.DatePartName(path, part.name)
		out = append(out, DateItem{
			ID:      name,
			Name:    name,
			Label:   message(loc, "date.labels."+part.name, part.label, nil),
			Value:   part.value,
			Classes: part.width,
			Invalid: invalid(part.name),
		})
	}
	return out
}

// remainingText picks the plural form of the remaining-characters message
// from the "characterCount" message set, falling back to English.
func remainingText(loc i18n.Localizer, maxLength int, value string) string {
	if maxLength <= 0 {
		return ""
	}
	remaining := maxLength - utf8.RuneCountInString(value)
	over := remaining < 0
	count := remaining
	if over {
		count = -remaining
	}
	params := map[string]any{"count": count}

	base := "remaining"
	if over {
		base = "over"
	}
	if set, ok := loc.Object("characterCount"); ok {
		for _, key := range pluralForms(base, count) {
			if msg, ok := set[key]; ok && strings.TrimSpace(msg) != "" {
				return i18n.Interpolate(msg, params)
			}
		}
	}

	switch {
	case over && count == 1:
		return "You have 1 character too many"
	case over:
		return i18n.Interpolate("You have {{count}} characters too many", params)
	case count == 1:
		return "You have 1 character remaining"
	default:
		return i18n.Interpolate("You have {{count}} characters remaining", params)
	}
}

func pluralForms(base string, count int) []string {
	switch count {
	case 0:
		return []string{base + "_zero", base + "_other", base}
	case 1:
		return []string{base + "_one", base}
	default:
		return []string{base + "_other", base}
	}
}

func cloneAttributes(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
