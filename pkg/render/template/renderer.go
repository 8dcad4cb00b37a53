package template

import "io"

// FilterFunc transforms a value inside a template. param is nil when the
// filter is used without an argument.
type FilterFunc func(input any, param any) (any, error)

// TemplateRenderer renders named templates or inline template sources with
// arbitrary data. Output is returned and also copied to every writer in out.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn FilterFunc) error
	GlobalContext(data any) error
}
