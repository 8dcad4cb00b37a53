package orchestrator

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

const defaultRendererName = html.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithTemplates sets the registry templates are looked up in.
func WithTemplates(templates *cellmap.Registry) Option {
	return func(o *Orchestrator) {
		o.templates = templates
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that runs on the form before
// validation and rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithRules replaces the validation rules used for Request.Validate.
func WithRules(rules ...form.Rule) Option {
	return func(o *Orchestrator) {
		o.rules = rules
	}
}

// WithThemeSelector resolves Request.ThemeName and ThemeVariant into the
// renderer theme config.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themes = selector
	}
}

// WithThemeDefaults sets the theme and variant used when a request names
// none.
func WithThemeDefaults(name, variant string) Option {
	return func(o *Orchestrator) {
		o.defaultTheme = name
		o.defaultVariant = variant
	}
}

// Orchestrator coordinates the pipeline from template to rendered output. It
// applies defaults (HTML renderer, default theme) while remaining open to
// dependency injection.
type Orchestrator struct {
	templates       *cellmap.Registry
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	rules           []form.Rule
	themes          theme.ThemeSelector
	defaultTheme    string
	defaultVariant  string
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one form to render.
type Request struct {
	// TemplateID selects the template from the registry.
	TemplateID int

	// Footer selects the footer. Zero picks the active footer.
	Footer int

	// Data prefills the form. Nil renders an empty form.
	Data form.Data

	// Validate runs the validation rules and surfaces their messages through
	// RenderOptions.Errors.
	Validate bool

	// Renderer names the renderer to use. Empty falls back to the default.
	Renderer string

	// ThemeName and ThemeVariant are resolved through the theme selector
	// unless RenderOptions.Theme is already set.
	ThemeName    string
	ThemeVariant string

	// Palette overrides theme colours.
	Palette html.Palette

	// RenderOptions carries per-request instructions handed to the renderer.
	RenderOptions render.RenderOptions
}

// Result is what Generate produced.
type Result struct {
	Output      []byte
	ContentType string
	Form        render.Form
	Validation  *form.Result
}

// Generate runs template lookup → section generation → transformer →
// validation → renderer and returns the rendered bytes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	f, err := o.Prepare(ctx, req)
	if err != nil {
		return Result{}, err
	}

	options := req.RenderOptions
	result := Result{Form: f}
	if req.Validate {
		validation := form.Validate(f.Data, f.Sections, o.rules...)
		result.Validation = &validation
		mapped := render.MapIssues(f.Sections, validation.Issues)
		options.Errors = options.Errors.Merge(mapped)
	}

	if options.Theme == nil && o.themes != nil {
		cfg, err := o.resolveTheme(req)
		if err != nil {
			return Result{}, err
		}
		options.Theme = cfg
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return Result{}, err
	}

	output, err := renderer.Render(ctx, f, options)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: render output: %w", err)
	}
	result.Output = output
	result.ContentType = renderer.ContentType()
	return result, nil
}

// Prepare builds the form of req and runs the transformer on it, stopping
// short of validation and rendering.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (render.Form, error) {
	f, err := o.Form(req.TemplateID, req.Footer, req.Data)
	if err != nil {
		return render.Form{}, err
	}
	if err := o.applyTransformer(ctx, &f); err != nil {
		return render.Form{}, err
	}
	return f, nil
}

// Form builds the form for a template footer without rendering it.
func (o *Orchestrator) Form(templateID, footer int, data form.Data) (render.Form, error) {
	if o.templates == nil {
		return render.Form{}, errors.New("orchestrator: template registry is nil")
	}
	tpl, ok := o.templates.Template(templateID)
	if !ok {
		return render.Form{}, fmt.Errorf("orchestrator: template %d not found", templateID)
	}
	if footer == 0 {
		active, ok := tpl.ActiveFooter()
		if !ok {
			return render.Form{}, fmt.Errorf("orchestrator: template %d has no footers", templateID)
		}
		footer = active.Index
	}
	if _, ok := tpl.Footer(footer); !ok {
		return render.Form{}, fmt.Errorf("orchestrator: template %d has no footer %d", templateID, footer)
	}
	return render.NewForm(tpl, footer, data), nil
}

func (o *Orchestrator) resolveTheme(req Request) (*theme.RendererConfig, error) {
	name, variant := req.ThemeName, req.ThemeVariant
	if name == "" {
		name = o.defaultTheme
	}
	if variant == "" && req.ThemeName == "" {
		variant = o.defaultVariant
	}
	cfg, err := html.ResolveTheme(o.themes, name, variant, req.Palette)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
	}
	return cfg, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	renderer, err := o.registry.Resolve("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, f *render.Form) error {
	if o.transformer == nil || f == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, f); err != nil {
		return fmt.Errorf("orchestrator: transform form: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		registry, err := render.NewRegistry(renderer)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
			return
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
