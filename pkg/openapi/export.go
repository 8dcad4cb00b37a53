package openapi

import (
	"fmt"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
)

// Extension keys attached to generated schemas.
const (
	ExtCell     = "x-cell"
	ExtColumn   = "x-column"
	ExtOrder    = "x-order"
	ExtRange    = "x-range"
	ExtTemplate = "x-template"
	ExtFooter   = "x-footer"
)

// DefaultVersion is the info.version of exported documents.
const DefaultVersion = "1.0.0"

// Option customises an export.
type Option func(*config)

type config struct {
	title   string
	version string
	servers []string
	paths   bool
}

// WithTitle overrides the document title (default: the template name).
func WithTitle(title string) Option { return func(c *config) { c.title = title } }

// WithVersion overrides DefaultVersion.
func WithVersion(version string) Option { return func(c *config) { c.version = version } }

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(c *config) {
		if url != "" {
			c.servers = append(c.servers, url)
		}
	}
}

// WithoutPaths exports component schemas only.
func WithoutPaths() Option { return func(c *config) { c.paths = false } }

// SchemaName is the component name used for a template footer.
func SchemaName(tpl cellmap.Template, footer cellmap.Footer) string {
	return fmt.Sprintf("Template%d_Footer%d", tpl.ID, footer.Index)
}

// Export describes every footer of tpl. Each footer becomes a component
// schema and, unless WithoutPaths is given, a POST operation on
// /templates/{id}/footers/{footer}/cells accepting that schema.
func Export(tpl cellmap.Template, opts ...Option) *openapi3.T {
	doc := newDocument(tpl, opts)
	cfg := applyOptions(tpl, opts)
	for _, footer := range tpl.Footers {
		addFooter(doc, tpl, footer, form.SectionsForFooter(tpl, footer.Index), cfg)
	}
	return doc
}

// ExportFooter describes one footer with already generated sections.
func ExportFooter(tpl cellmap.Template, footer cellmap.Footer, sections []form.Section, opts ...Option) *openapi3.T {
	doc := newDocument(tpl, opts)
	addFooter(doc, tpl, footer, sections, applyOptions(tpl, opts))
	return doc
}

func applyOptions(tpl cellmap.Template, opts []Option) config {
	cfg := config{title: tpl.Name, version: DefaultVersion, paths: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.title == "" {
		cfg.title = "Template " + strconv.Itoa(tpl.ID)
	}
	return cfg
}

func newDocument(tpl cellmap.Template, opts []Option) *openapi3.T {
	cfg := applyOptions(tpl, opts)
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   cfg.title,
			Version: cfg.version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	for _, url := range cfg.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}
	return doc
}

func addFooter(doc *openapi3.T, tpl cellmap.Template, footer cellmap.Footer, sections []form.Section, cfg config) {
	name := SchemaName(tpl, footer)
	schema := FormSchema(sections)
	schema.Title = footer.Name
	schema.Extensions[ExtTemplate] = tpl.ID
	schema.Extensions[ExtFooter] = footer.Index
	doc.Components.Schemas[name] = schema.NewRef()

	if !cfg.paths {
		return
	}
	ref := openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
	path := fmt.Sprintf("/templates/%d/footers/%d/cells", tpl.ID, footer.Index)
	doc.Paths.Set(path, &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: fmt.Sprintf("cells_%d_%d", tpl.ID, footer.Index),
			Summary:     fmt.Sprintf("Convert %s (%s) form data into cell writes", tpl.Name, footer.Name),
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, &openapi3.ResponseRef{
					Value: openapi3.NewResponse().
						WithDescription("Cell coordinate to value").
						WithJSONSchema(openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())),
				}),
				openapi3.WithStatus(422, &openapi3.ResponseRef{
					Value: openapi3.NewResponse().WithDescription("Validation failed"),
				}),
			),
		},
	})
}

// FormSchema builds the object schema of a form: one property per section,
// objects for flat sections and arrays for item sections.
func FormSchema(sections []form.Section) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Extensions = map[string]any{}
	for i, section := range sections {
		var schema *openapi3.Schema
		if section.IsItems {
			schema = itemsSchema(section)
		} else {
			schema = sectionSchema(section)
		}
		schema.Extensions[ExtOrder] = i
		root.WithProperty(section.Title, schema)
	}
	return root
}

func sectionSchema(section form.Section) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Extensions = map[string]any{}
	for i, field := range section.Fields {
		prop := fieldSchema(field.Type)
		prop.Extensions = map[string]any{ExtCell: field.Cell, ExtOrder: i}
		schema.WithProperty(field.Label, prop)
	}
	return schema
}

func itemsSchema(section form.Section) *openapi3.Schema {
	row := openapi3.NewObjectSchema()
	schema := openapi3.NewArraySchema()
	schema.Extensions = map[string]any{}
	if section.Items == nil {
		return schema.WithItems(row)
	}
	for i, col := range section.Items.Content {
		prop := fieldSchema(form.Classify(col.Field))
		prop.Extensions = map[string]any{ExtColumn: col.Letters, ExtOrder: i}
		row.WithProperty(col.Field, prop)
	}
	schema.WithItems(row).WithMaxItems(int64(section.Rows()))
	schema.Extensions[ExtRange] = map[string]int{
		"start": section.Items.Range.Start,
		"end":   section.Items.Range.End,
	}
	return schema
}

// fieldSchema types every value as a string because cells are written as
// text; the format carries the semantic type.
func fieldSchema(fieldType form.FieldType) *openapi3.Schema {
	schema := openapi3.NewStringSchema()
	switch fieldType {
	case form.FieldTypeEmail:
		schema.Format = "email"
	case form.FieldTypeDate:
		schema.Format = "date"
	case form.FieldTypeNumber, form.FieldTypeDecimal:
		schema.Format = string(fieldType)
	case form.FieldTypeTextarea:
		schema.Format = "textarea"
	}
	return schema
}
