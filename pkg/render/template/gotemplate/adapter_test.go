package gotemplate_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-invoiceform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-invoiceform/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"number": 42, "customer": "  Jane Doe "}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"company": struct {
			Name string `json:"name"`
		}{Name: "Acme Ltd"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})
	testsupport.AssertGolden(t, filepath.Join("testdata", "use-global.golden"), []byte(result))
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter to fail")
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"label": "total due"}, w)
	})
	testsupport.AssertGolden(t, filepath.Join("testdata", "use-filter.golden"), []byte(result))
}

func TestEngine_BuiltinFilters(t *testing.T) {
	engine := newEngine(t)

	type field struct {
		Path string `json:"path"`
		Type string `json:"type"`
	}
	data := map[string]any{
		"fields": []field{
			{Path: "Bill To.Email", Type: "email"},
			{Path: "Line Items[2].Amount", Type: "decimal"},
			{Path: "Notes", Type: "textarea"},
		},
	}

	result, err := engine.RenderTemplate("fields.tpl", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	testsupport.AssertGolden(t, filepath.Join("testdata", "fields.golden"), []byte(result))
}

func TestEngine_RenderDetectsInlineSource(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.Render("{{ cell }}={{ value }}", map[string]any{"cell": "B8", "value": "Acme"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "B8=Acme" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := engine.Render("missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without templates")
	}
}

func TestNew_AcceptsGoTemplateOptions(t *testing.T) {
	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS), gotemplate.WithGoTemplateOptions())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.RenderString("{{ 1 }}", nil); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
