package validation

import (
	"strings"

	"github.com/goliatone/go-formflow/pkg/i18n"
)

// Message categories shared with the translation catalog.
const (
	CategoryRequired  = "required"
	CategoryPattern   = "pattern"
	CategoryMaxLength = "maxLength"
)

// Default messages used when neither the catalog nor the field supplies one.
const (
	DefaultRequiredMessage  = "This field is required"
	DefaultPatternMessage   = "Enter a value in the correct format"
	DefaultMaxLengthMessage = "Must be {{max}} characters or fewer"
)

type messages struct {
	loc i18n.Localizer
}

// category resolves errors.<path>.<category>, then the field literal, then
// errors.<category>, then the built-in default.
func (m messages) category(path, category, fallback, def string, params map[string]any) string {
	if msg, ok := m.loc.Text("errors."+path+"."+category, params); ok {
		return msg
	}
	if strings.TrimSpace(fallback) != "" {
		return i18n.Interpolate(fallback, params)
	}
	if msg, ok := m.loc.Text("errors."+category, params); ok {
		return msg
	}
	return i18n.Interpolate(def, params)
}

// token resolves a custom rule result: errors.<path>.<token>, then
// errors.<token>, then the token itself so rules may return plain text.
func (m messages) token(path, token string) string {
	if msg, ok := m.loc.Text("errors." + path + "." + token); ok {
		return msg
	}
	if msg, ok := m.loc.Text("errors." + token); ok {
		return msg
	}
	return token
}
