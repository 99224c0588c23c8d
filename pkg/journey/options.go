package journey

import (
	"context"
	"time"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// CheckFunc runs an additional check after field validation passed, for
// example a call to a backend service. The returned payload is keyed by
// field path in any of the shapes render.MapErrorPayload accepts; keys
// matching no field become form level errors. A non-nil error aborts the
// submission.
type CheckFunc func(ctx context.Context, sub Submission, answers model.AnswerSet) (map[string][]string, error)

// Option customises an Engine.
type Option func(*Engine)

// WithStore sets the record store. Defaults to an in-memory store.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithTranslator sets the translator used for labels and messages.
func WithTranslator(t i18n.Translator) Option {
	return func(e *Engine) {
		e.translator = t
	}
}

// WithDefaultLocale is used when a request carries no locale.
func WithDefaultLocale(locale string) Option {
	return func(e *Engine) {
		if locale != "" {
			e.defaultLocale = locale
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.Normalize(logger)
	}
}

// WithBuilder replaces the component builder.
func WithBuilder(b *render.Builder) Option {
	return func(e *Engine) {
		if b != nil {
			e.builder = b
		}
	}
}

// WithReferences sets the case reference generator.
func WithReferences(refs *store.References) Option {
	return func(e *Engine) {
		if refs != nil {
			e.refs = refs
		}
	}
}

// WithClock sets the clock used by date validation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithValidationOptions appends options passed to every validation run.
func WithValidationOptions(opts ...validation.Option) Option {
	return func(e *Engine) {
		e.validationOpts = append(e.validationOpts, opts...)
	}
}

// WithCheck registers a check run after field validation.
func WithCheck(check CheckFunc) Option {
	return func(e *Engine) {
		if check != nil {
			e.checks = append(e.checks, check)
		}
	}
}
