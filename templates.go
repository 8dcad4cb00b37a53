package invoiceform

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// DefaultTemplatesFS exposes the bundled invoice templates.
func DefaultTemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// DefaultTemplates loads the bundled invoice templates into a registry.
func DefaultTemplates(options ...cellmap.LoadOption) (*cellmap.Registry, error) {
	return cellmap.LoadFS(DefaultTemplatesFS(), options...)
}

// LoadTemplates reads every template file under fsys. A nil fsys yields the
// bundled templates.
func LoadTemplates(fsys fs.FS, options ...cellmap.LoadOption) (*cellmap.Registry, error) {
	if fsys == nil {
		return DefaultTemplates(options...)
	}
	return cellmap.LoadFS(fsys, options...)
}

// EmbeddedTemplates exposes the built-in HTML preview templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
