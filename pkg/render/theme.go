package render

import (
	"maps"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Partial keys looked up in the theme configuration. Each maps to a
// template name known to the engine.
const (
	PartialPage         = "forms.page"
	PartialErrorSummary = "forms.errorSummary"
)

// PartialKey returns the theme partial key for a component type.
func PartialKey(ct ComponentType) string {
	return "forms." + string(ct)
}

// DefaultPartials lists the bundled template of every partial key.
func DefaultPartials() map[string]string {
	out := map[string]string{
		PartialPage:         "page",
		PartialErrorSummary: "components/errorSummary",
	}
	for _, ct := range []ComponentType{
		ComponentInput, ComponentTextarea, ComponentCharacterCount,
		ComponentRadios, ComponentCheckboxes, ComponentDateInput,
	} {
		out[PartialKey(ct)] = "components/" + string(ct)
	}
	return out
}

// SelectTheme resolves name and variant through selector and derives the
// renderer configuration. fallbacks fill partials the theme leaves unset.
func SelectTheme(selector theme.ThemeSelector, name, variant string, fallbacks map[string]string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return ThemeConfig(selection, fallbacks), nil
}

// ThemeConfig flattens a selection into a renderer configuration. Variant
// templates, tokens and assets override the base manifest; every token is
// also exposed as a "--<token>" CSS variable.
func ThemeConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: maps.Clone(fallbacks),
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}
	if cfg.Partials == nil {
		cfg.Partials = map[string]string{}
	}

	prefix := ""
	assets := map[string]string{}
	if manifest := selection.Manifest; manifest != nil {
		maps.Copy(cfg.Partials, manifest.Templates)
		maps.Copy(cfg.Tokens, manifest.Tokens)
		maps.Copy(assets, manifest.Assets.Files)
		prefix = manifest.Assets.Prefix
		if variant, ok := manifest.Variants[selection.Variant]; ok {
			maps.Copy(cfg.Partials, variant.Templates)
			maps.Copy(cfg.Tokens, variant.Tokens)
			maps.Copy(assets, variant.Assets.Files)
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := assets[key]
		if !ok {
			return ""
		}
		if prefix == "" {
			return file
		}
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(file, "/")
	}
	return cfg
}

// cssVarsStyle renders CSS variables as an inline style declaration.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range slices.Sorted(maps.Keys(vars)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteByte(';')
	}
	return b.String()
}
