package orchestrator_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/orchestrator"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
	"github.com/goliatone/go-invoiceform/pkg/testsupport"
)

type captureRenderer struct {
	form    render.Form
	options render.RenderOptions
}

func (c *captureRenderer) Name() string        { return "capture" }
func (c *captureRenderer) ContentType() string { return "text/plain" }
func (c *captureRenderer) Render(_ context.Context, f render.Form, options render.RenderOptions) ([]byte, error) {
	c.form = f
	c.options = options
	return []byte("rendered"), nil
}

func templates(t *testing.T) *cellmap.Registry {
	t.Helper()
	registry := cellmap.NewRegistry()
	if err := registry.Register(testsupport.InvoiceTemplate(t)); err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func capturing(t *testing.T, options ...orchestrator.Option) (*orchestrator.Orchestrator, *captureRenderer) {
	t.Helper()
	renderer := &captureRenderer{}
	registry, err := render.NewRegistry(renderer)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	options = append([]orchestrator.Option{
		orchestrator.WithTemplates(templates(t)),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
	}, options...)
	return orchestrator.New(options...), renderer
}

func TestGenerate_DefaultHTMLRenderer(t *testing.T) {
	orch := orchestrator.New(orchestrator.WithTemplates(templates(t)))

	result, err := orch.Generate(context.Background(), orchestrator.Request{TemplateID: 7})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
	if result.Form.Footer.Index != 2 {
		t.Fatalf("expected the active footer, got %d", result.Form.Footer.Index)
	}
	if !strings.Contains(string(result.Output), "<h1>Service Invoice (Final)</h1>") {
		t.Fatalf("missing heading in:\n%s", result.Output)
	}
}

func TestGenerate_Errors(t *testing.T) {
	orch, _ := capturing(t)
	ctx := context.Background()

	if _, err := orch.Generate(ctx, orchestrator.Request{TemplateID: 99}); err == nil {
		t.Fatalf("expected unknown template error")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{TemplateID: 7, Footer: 5}); err == nil {
		t.Fatalf("expected unknown footer error")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{TemplateID: 7, Renderer: "pdf"}); err == nil {
		t.Fatalf("expected unknown renderer error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orch.Generate(cancelled, orchestrator.Request{TemplateID: 7}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestGenerate_ValidateMapsIssues(t *testing.T) {
	orch, renderer := capturing(t)

	f, err := orch.Form(7, 1, nil)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if err := f.Data.Set("Bill To", "Email", "nope"); err != nil {
		t.Fatalf("set: %v", err)
	}

	result, err := orch.Generate(context.Background(), orchestrator.Request{
		TemplateID: 7,
		Footer:     1,
		Data:       f.Data,
		Validate:   true,
		RenderOptions: render.RenderOptions{
			Errors: render.ErrorMapping{Form: []string{"server unavailable"}},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Validation == nil || result.Validation.Valid {
		t.Fatalf("expected a failed validation, got %#v", result.Validation)
	}

	want := render.ErrorMapping{
		Fields: map[string][]string{"Bill To.Email": {"Invalid email format in Bill To: Email"}},
		Form:   []string{"server unavailable"},
	}
	if diff := cmp.Diff(want, renderer.options.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_ResolvesTheme(t *testing.T) {
	selector, err := html.NewSelector(html.DefaultManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	orch, renderer := capturing(t,
		orchestrator.WithThemeSelector(selector),
		orchestrator.WithThemeDefaults(html.DefaultThemeName, ""),
	)

	_, err = orch.Generate(context.Background(), orchestrator.Request{
		TemplateID: 7,
		Palette:    html.Palette{Background: "#000000"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected a resolved theme")
	}
	if cfg.Theme != html.DefaultThemeName {
		t.Fatalf("unexpected theme %q", cfg.Theme)
	}
	if got := cfg.Tokens[html.TokenBackground]; got != "#000000" {
		t.Fatalf("palette did not override background: %q", got)
	}

	preset := &theme.RendererConfig{Theme: "preset"}
	_, err = orch.Generate(context.Background(), orchestrator.Request{
		TemplateID:    7,
		RenderOptions: render.RenderOptions{Theme: preset},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.options.Theme != preset {
		t.Fatalf("explicit theme must win")
	}

	if _, err := orch.Generate(context.Background(), orchestrator.Request{TemplateID: 7, ThemeName: "missing"}); err == nil {
		t.Fatalf("expected unknown theme error")
	}
}

func TestJSONPresetTransformer(t *testing.T) {
	fsys := fstest.MapFS{"preset.json": {Data: []byte(`{
		"values": {
			"bill to.name": "Acme Ltd",
			"Bill To.Email": "billing@acme.test",
			"Line Items[1].Description": "Consulting",
			"Unknown.Field": "ignored"
		}
	}`)}}
	preset, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "preset.json")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	orch, renderer := capturing(t, orchestrator.WithTransformer(preset))

	f, err := orch.Form(7, 0, nil)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if err := f.Data.Set("Bill To", "Email", "jane@example.com"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := orch.Generate(context.Background(), orchestrator.Request{TemplateID: 7, Data: f.Data}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	data := renderer.form.Data
	if got, _ := data.Get("Bill To", "Name"); got != "Acme Ltd" {
		t.Fatalf("name not prefilled: %q", got)
	}
	if got, _ := data.Get("Bill To", "Email"); got != "jane@example.com" {
		t.Fatalf("existing value overwritten: %q", got)
	}
	if got, _ := data.Item("Line Items", 0, "Description"); got != "Consulting" {
		t.Fatalf("item not prefilled: %q", got)
	}
}

func TestJSONPresetTransformer_Strict(t *testing.T) {
	preset, err := orchestrator.NewJSONPresetTransformer([]byte(`{"strict": true, "values": {"Nope.Field": "x"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	orch, _ := capturing(t, orchestrator.WithTransformer(preset))
	if _, err := orch.Generate(context.Background(), orchestrator.Request{TemplateID: 7}); err == nil {
		t.Fatalf("expected strict preset to reject unknown field")
	}

	if _, err := orchestrator.NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
}
