package render

import (
	"context"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
)

// Form is everything a renderer needs to draw one invoice form: the template
// and footer it was generated from, its sections and the current values.
type Form struct {
	Template cellmap.Template
	Footer   cellmap.Footer
	Sections []form.Section
	Data     form.Data
}

// NewForm generates the sections of tpl for the given footer and pairs them
// with data. Missing data is initialised empty; partial data is normalised to
// the generated sections.
func NewForm(tpl cellmap.Template, footer int, data form.Data) Form {
	f := Form{Template: tpl, Sections: form.SectionsForFooter(tpl, footer)}
	if selected, ok := tpl.Footer(footer); ok {
		f.Footer = selected
	}
	if data == nil {
		f.Data = form.Initialize(f.Sections)
	} else {
		f.Data = form.Normalize(data, f.Sections)
	}
	return f
}

// Renderer converts a Form into a byte representation (HTML, terminal output).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, f Form, options RenderOptions) ([]byte, error)
}
