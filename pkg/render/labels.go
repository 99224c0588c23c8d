package render

import (
	"strings"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
)

// ResolveLabel returns the display label of field. The first non-blank
// result wins: the literal label, the label function applied to the
// flattened translations, the declared key, the derived "<name>Label" key
// and finally the field name.
func ResolveLabel(field model.Field, loc i18n.Localizer) string {
	return labelText(field, loc, logging.Nop())
}

// ResolveHint follows the label order with "<name>Hint" as derived key. A
// field without any hint source has no hint.
func ResolveHint(field model.Field, loc i18n.Localizer) string {
	return hintText(field, loc, logging.Nop())
}

// ResolveOptionText resolves an option of field, falling back to the
// "<name>Options.<value>" key and then the raw value.
func ResolveOptionText(field model.Field, opt model.Option, loc i18n.Localizer) string {
	return optionText(field, opt, loc, logging.Nop())
}

func labelText(field model.Field, loc i18n.Localizer, logger logging.Logger) string {
	return firstText(loc, logger, field.Name, field.Label, field.LabelFunc, field.LabelKey, field.Name+"Label", field.Name)
}

func hintText(field model.Field, loc i18n.Localizer, logger logging.Logger) string {
	return firstText(loc, logger, field.Name, field.Hint, field.HintFunc, field.HintKey, field.Name+"Hint", "")
}

func optionText(field model.Field, opt model.Option, loc i18n.Localizer, logger logging.Logger) string {
	derived := field.Name + "Options." + opt.Value
	return firstText(loc, logger, field.Name, opt.Text, opt.TextFunc, opt.TextKey, derived, opt.Value)
}

func firstText(loc i18n.Localizer, logger logging.Logger, name, literal string, fn model.Text, key, derived, fallback string) string {
	if strings.TrimSpace(literal) != "" {
		return literal
	}
	if text := dynamicText(fn, loc, logger, name); text != "" {
		return text
	}
	if msg, ok := loc.Text(key); ok {
		return msg
	}
	if msg, ok := loc.Text(derived); ok {
		return msg
	}
	return fallback
}

func dynamicText(fn model.Text, loc i18n.Localizer, logger logging.Logger, name string) string {
	if !fn.IsComputed() {
		return strings.TrimSpace(fn.LiteralValue())
	}
	text, err := fn.Resolve(loc.Flat())
	if err != nil {
		logging.WithFields(logger, map[string]any{
			"field": name,
		}).Error("render: label function for %s failed: %v", name, err)
		return ""
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

// message resolves key for the localizer, returning def when the key is
// missing. params are interpolated into def as well.
func message(loc i18n.Localizer, key, def string, params map[string]any) string {
	var args []any
	if params != nil {
		args = append(args, params)
	}
	if msg, ok := loc.Text(key, args...); ok {
		return msg
	}
	return i18n.Interpolate(def, params)
}
