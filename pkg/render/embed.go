package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/page.tmpl templates/components/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled page and component templates, rooted so
// "components/input.tmpl" and "page.tmpl" resolve directly.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
