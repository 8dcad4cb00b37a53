// Package html renders invoice forms as HTML previews.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
	rendertemplate "github.com/goliatone/go-invoiceform/pkg/render/template"
	"github.com/goliatone/go-invoiceform/pkg/render/template/gotemplate"
)

// Name is the registry name of the HTML renderer.
const Name = "html"

const formTemplate = "templates/form.tpl"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// templates/form.tpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(dir string) Option {
	return func(cfg *config) {
		if dir != "" {
			cfg.templateFS = os.DirFS(dir)
		}
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithDefaultTheme sets the theme used when RenderOptions carries none.
func WithDefaultTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// Renderer renders the embedded pongo2 form template.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	return &Renderer{templates: renderer, theme: cfg.theme}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, f render.Form, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	themeCfg := options.Theme
	if themeCfg == nil {
		themeCfg = r.theme
	}

	result, err := r.templates.RenderTemplate(formTemplate, map[string]any{
		"form":     buildFormView(f, options),
		"sections": buildSectionViews(f, options.Errors),
		"theme":    buildThemeView(themeCfg),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type formView struct {
	Title      string       `json:"title"`
	TemplateID int          `json:"templateId"`
	Footer     int          `json:"footer"`
	Action     string       `json:"action,omitempty"`
	Hidden     []hiddenView `json:"hidden,omitempty"`
	Errors     []string     `json:"errors,omitempty"`
}

type fieldView struct {
	Label  string   `json:"label"`
	Path   string   `json:"path"`
	Type   string   `json:"type"`
	Cell   string   `json:"cell"`
	Value  string   `json:"value"`
	Errors []string `json:"errors,omitempty"`
}

type columnView struct {
	Field  string `json:"field"`
	Column string `json:"column"`
}

type cellView struct {
	Path   string   `json:"path"`
	Type   string   `json:"type"`
	Cell   string   `json:"cell"`
	Value  string   `json:"value"`
	Errors []string `json:"errors,omitempty"`
}

type rowView struct {
	Number int        `json:"number"`
	Cells  []cellView `json:"cells"`
}

type sectionView struct {
	Title   string       `json:"title"`
	IsItems bool         `json:"isItems"`
	Fields  []fieldView  `json:"fields,omitempty"`
	Columns []columnView `json:"columns,omitempty"`
	Rows    []rowView    `json:"rows,omitempty"`
}

type themeView struct {
	Name       string `json:"name,omitempty"`
	Variant    string `json:"variant,omitempty"`
	Style      string `json:"style,omitempty"`
	Stylesheet string `json:"stylesheet,omitempty"`
}

func buildFormView(f render.Form, options render.RenderOptions) formView {
	title := strings.TrimSpace(options.Title)
	if title == "" {
		title = f.Template.Name
		if f.Footer.Name != "" && f.Footer.Name != f.Template.Name {
			title += " (" + f.Footer.Name + ")"
		}
	}

	view := formView{
		Title:      title,
		TemplateID: f.Template.ID,
		Footer:     f.Footer.Index,
		Action:     options.Action,
		Errors:     options.Errors.Form,
	}
	hidden := options.Hidden
	if options.Action != "" {
		hidden = render.MergeHiddenFields(hidden, render.IdentityFields(f)...)
	}
	for _, field := range render.SortedHiddenFields(hidden) {
		view.Hidden = append(view.Hidden, hiddenView{Name: field.Name, Value: field.Value})
	}
	return view
}

func buildSectionViews(f render.Form, errs render.ErrorMapping) []sectionView {
	views := make([]sectionView, 0, len(f.Sections))
	for _, section := range f.Sections {
		view := sectionView{Title: section.Title, IsItems: section.IsItems}

		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for _, col := range section.Items.Content {
				view.Columns = append(view.Columns, columnView{Field: col.Field, Column: col.Letters})
			}
			for row := 0; row < section.Rows(); row++ {
				number := row + 1
				rv := rowView{Number: number}
				for _, col := range section.Items.Content {
					value, _ := f.Data.Item(section.Title, row, col.Field)
					path := render.ItemPath(section.Title, number, col.Field)
					rv.Cells = append(rv.Cells, cellView{
						Path:   path,
						Type:   string(form.Classify(col.Field)),
						Cell:   cellmap.CellName(col.Letters, section.Items.Range.Start+row),
						Value:  value,
						Errors: errs.For(path),
					})
				}
				view.Rows = append(view.Rows, rv)
			}
			views = append(views, view)
			continue
		}

		for _, field := range section.Fields {
			value, _ := f.Data.Get(section.Title, field.Label)
			path := render.FieldPath(section.Title, field.Label)
			view.Fields = append(view.Fields, fieldView{
				Label:  field.Label,
				Path:   path,
				Type:   string(field.Type),
				Cell:   field.Cell,
				Value:  value,
				Errors: errs.For(path),
			})
		}
		views = append(views, view)
	}
	return views
}

func buildThemeView(cfg *theme.RendererConfig) themeView {
	if cfg == nil {
		return themeView{}
	}
	view := themeView{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Style:   cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		view.Stylesheet = cfg.AssetURL("stylesheet")
	}
	return view
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
