// Package render turns field schemas into component parameter bags and
// renders them through a template engine. Labels, hints and option texts
// are resolved against a localizer; option sub-fields are pre-rendered as
// the conditional reveal of their option. Theme partials replace bundled
// component templates by key ("forms.input", "forms.radios", ...).
package render
