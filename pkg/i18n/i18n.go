// Package i18n provides the translation contract used by labels, hints and
// validation messages, plus a file backed catalog implementation.
package i18n

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Translator resolves a key for a locale. Implementations signal a missing
// key with an error or by returning the key itself.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// ObjectTranslator returns the flattened subtree stored under key, for
// message sets such as plural forms.
type ObjectTranslator interface {
	TranslateObject(locale, key string) (map[string]string, error)
}

// Flattener exposes every message of a locale keyed by dotted path.
type Flattener interface {
	Flatten(locale string) map[string]string
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate calls fn.
func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MissingTranslationHandler computes the string used when a key could not be
// resolved.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

var (
	// ErrMissingTranslator is reported when no translator was configured.
	ErrMissingTranslator = errors.New("i18n: translator not configured", errors.CategoryInternal).
				WithTextCode("I18N_NO_TRANSLATOR")
	// ErrMissingKey is reported when a key has no message for the locale.
	ErrMissingKey = errors.New("i18n: missing translation", errors.CategoryNotFound).
			WithTextCode("I18N_MISSING_KEY")
)

func missingKey(locale, key string) error {
	return ErrMissingKey.Clone().WithMetadata(map[string]any{
		"locale": locale,
		"key":    key,
	})
}

// Localizer binds a translator to one locale.
type Localizer struct {
	translator Translator
	locale     string
}

// NewLocalizer returns a Localizer. A nil translator yields a Localizer that
// never finds anything.
func NewLocalizer(t Translator, locale string) Localizer {
	return Localizer{translator: t, locale: locale}
}

// Locale returns the bound locale.
func (l Localizer) Locale() string { return l.locale }

// Text returns the message for key. Errors, blank messages and messages equal
// to the key all count as not found.
func (l Localizer) Text(key string, args ...any) (string, bool) {
	key = strings.TrimSpace(key)
	if l.translator == nil || key == "" {
		return "", false
	}
	msg, err := l.translator.Translate(l.locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" || msg == key {
		return "", false
	}
	return msg, true
}

// Object returns the message set under key when the translator supports it.
func (l Localizer) Object(key string) (map[string]string, bool) {
	ot, ok := l.translator.(ObjectTranslator)
	if !ok {
		return nil, false
	}
	out, err := ot.TranslateObject(l.locale, key)
	if err != nil || len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Flat returns every message for the bound locale, or an empty map.
func (l Localizer) Flat() map[string]string {
	if f, ok := l.translator.(Flattener); ok {
		if out := f.Flatten(l.locale); out != nil {
			return out
		}
	}
	return map[string]string{}
}
