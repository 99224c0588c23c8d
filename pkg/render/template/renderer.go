package template

import (
	"io"
)

// TemplateRenderer is the engine surface shared with go-template. Names
// passed to Render are template names; a string holding template tags is
// rendered inline.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Lookup is implemented by engines that can report whether a template
// exists. The builder uses it to fall back from a missing theme partial to
// the bundled component template.
type Lookup interface {
	HasTemplate(name string) bool
}
