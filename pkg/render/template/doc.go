// Package template declares the engine contract the component builder
// renders through. The gotemplate sub-package provides the pongo2 backed
// implementation used by default.
package template
