// Package validation checks a submitted step against its field schema and
// produces an ErrorMap keyed by field path.
package validation

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Option customises ValidateForm.
type Option func(*config)

type config struct {
	logger       logging.Logger
	trimRequired bool
	now          func() time.Time
}

// WithLogger routes rule failures to logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *config) { c.logger = logging.Normalize(logger) }
}

// WithTrimRequired makes whitespace-only text fail the required check.
func WithTrimRequired() Option {
	return func(c *config) { c.trimRequired = true }
}

// WithClock sets the clock used by the no-future-date rule.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// ValidateForm validates fields against body, the current step submission,
// and all, the answers known for the whole journey. Hidden sub-fields are
// skipped. Inputs are never mutated and rule panics never escape.
func ValidateForm(fields []model.Field, body, all model.AnswerSet, loc i18n.Localizer, opts ...Option) ErrorMap {
	cfg := config{logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	v := validator{
		cfg:   cfg,
		body:  body,
		all:   all,
		loc:   loc,
		msgs:  messages{loc: loc},
		flat:  loc.Flat(),
		scope: model.Scope{Step: body, All: all},
		errs:  ErrorMap{},
	}
	for _, field := range fields {
		v.field(field, nil)
	}
	return v.errs
}

type validator struct {
	cfg   config
	body  model.AnswerSet
	all   model.AnswerSet
	loc   i18n.Localizer
	msgs  messages
	flat  map[string]string
	scope model.Scope
	errs  ErrorMap
}

func (v *validator) field(field model.Field, parent *visibility.Parent) {
	if !visibility.ShouldValidateField(parent, v.body, v.all) {
		return
	}
	path := field.Name
	if parent != nil {
		path = model.NestedFieldName(parent.Path, field.Name)
	}

	required, err := field.Required.Resolve(v.scope)
	if err != nil {
		v.ruleFailed(path, "required", err)
		required = false
	}
	value := values.Resolve(field, path, v.body)

	switch field.Kind {
	case model.KindDate:
		v.date(field, path, value, required)
	case model.KindCheckbox:
		v.checkbox(field, path, value, required)
	case model.KindText, model.KindTextarea, model.KindCharacterCount:
		v.text(field, path, value, required)
	case model.KindRadio:
		if required && values.IsBlank(field.Kind, value) {
			v.requiredFailed(field, path)
		}
	}

	for _, opt := range field.Options {
		next := &visibility.Parent{Path: path, Kind: field.Kind, OptionValue: opt.Value}
		for _, sub := range opt.SubFields {
			v.field(sub, next)
		}
	}
}

func (v *validator) date(field model.Field, path string, value any, required bool) {
	date, _ := values.AsDate(value)
	fe := ValidateDate(date.Day, date.Month, date.Year, DateOptions{
		Required:     required,
		NoFutureDate: field.NoFutureDate,
		Now:          v.cfg.now,
		Localizer:    v.loc,
		Translations: v.flat,
		Field:        path,
		Message:      field.ErrorMessage,
	})
	if fe != nil {
		v.errs.setOnce(path, *fe)
		return
	}
	if date.IsBlank() {
		return
	}
	v.hooks(field, path, value)
}

func (v *validator) checkbox(field model.Field, path string, value any, required bool) {
	if values.IsBlank(field.Kind, value) {
		if required {
			v.requiredFailed(field, path)
		}
		return
	}
	v.hooks(field, path, value)
}

func (v *validator) text(field model.Field, path string, value any, required bool) {
	raw := values.String(value)
	blank := value == nil || raw == ""
	if v.cfg.trimRequired {
		blank = strings.TrimSpace(raw) == ""
	}
	if blank {
		if required {
			v.requiredFailed(field, path)
		}
		return
	}

	if field.Pattern != nil {
		if trimmed := strings.TrimSpace(raw); trimmed != "" && !field.Pattern.MatchString(trimmed) {
			v.errs.setOnce(path, FieldError{
				Message: v.msgs.category(path, CategoryPattern, field.PatternMessage, DefaultPatternMessage, nil),
			})
		}
	}
	if field.MaxLength > 0 && utf8.RuneCountInString(raw) > field.MaxLength {
		v.errs.setOnce(path, FieldError{
			Message: v.msgs.category(path, CategoryMaxLength, field.MaxLengthMessage, DefaultMaxLengthMessage,
				map[string]any{"max": strconv.Itoa(field.MaxLength)}),
		})
	}
	v.hooks(field, path, value)
}

func (v *validator) hooks(field model.Field, path string, value any) {
	if field.Validator != nil {
		token, err := model.SafeCall(func() string { return field.Validator(value, v.all) })
		if err != nil {
			v.ruleFailed(path, "validator", err)
		} else if token != "" {
			v.errs.setOnce(path, FieldError{Message: v.msgs.token(path, token)})
		}
	}
	if field.Validate != nil {
		token, err := model.SafeCall(func() string { return field.Validate(value, v.body, v.all) })
		if err != nil {
			v.ruleFailed(path, "validate", err)
		} else if token != "" {
			v.errs.setOnce(path, FieldError{Message: v.msgs.token(path, token)})
		}
	}
}

func (v *validator) requiredFailed(field model.Field, path string) {
	v.errs.setOnce(path, FieldError{
		Message: v.msgs.category(path, CategoryRequired, field.ErrorMessage, DefaultRequiredMessage, nil),
	})
}

func (v *validator) ruleFailed(path, rule string, err error) {
	logging.WithFields(v.cfg.logger, map[string]any{
		"field": path,
		"rule":  rule,
	}).Error("validation: %s rule for %s failed: %v", rule, path, err)
}
