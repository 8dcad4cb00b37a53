package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	tpl := cellmap.Template{ID: 3, Footers: []cellmap.Footer{{Name: "Retail", Index: 2, Active: true}}}
	merged := render.MergeHiddenFields(base, append(render.IdentityFields(render.Form{Template: tpl, Footer: tpl.Footers[0]}),
		render.Hidden("  ", "skip"),
	)...)

	wantMerged := map[string]string{
		"existing":   "keep",
		"templateId": "3",
		"billType":   "2",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "billType", Value: "2"},
		{Name: "existing", Value: "keep"},
		{Name: "templateId", Value: "3"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}

	if got := render.MergeHiddenFields(nil); got != nil {
		t.Fatalf("expected nil for empty merge, got %#v", got)
	}
}

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(context.Context, render.Form, render.RenderOptions) ([]byte, error) {
	return []byte(s.name), nil
}

func TestRegistry(t *testing.T) {
	registry, err := render.NewRegistry(stubRenderer{name: "html"}, stubRenderer{name: "tui"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := registry.Register(stubRenderer{name: "html"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register(stubRenderer{}); err == nil {
		t.Fatalf("expected empty name to fail")
	}

	if diff := cmp.Diff([]string{"html", "tui"}, registry.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	fallback, err := registry.Resolve("")
	if err != nil || fallback.Name() != "html" {
		t.Fatalf("expected html default, got %v (%v)", fallback, err)
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if !registry.Has("tui") {
		t.Fatalf("expected tui to be registered")
	}

	empty, _ := render.NewRegistry()
	if _, err := empty.Resolve(""); err == nil {
		t.Fatalf("expected error from empty registry")
	}
}

func TestNewForm(t *testing.T) {
	mapping, err := cellmap.ParseMapping([]byte(invoiceMapping))
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}
	tpl := cellmap.Template{
		ID:       1,
		Name:     "Service",
		Footers:  []cellmap.Footer{{Name: "Service", Index: 1, Active: true}},
		Mappings: map[int]cellmap.Mapping{1: mapping},
	}

	partial := form.Data{"Bill To": {Fields: map[string]string{"Name": "Jane", "Stray": "x"}}}
	f := render.NewForm(tpl, 1, partial)

	if f.Footer.Name != "Service" {
		t.Fatalf("footer not selected: %#v", f.Footer)
	}
	if got, _ := f.Data.Get("Bill To", "Name"); got != "Jane" {
		t.Fatalf("expected Jane, got %q", got)
	}
	if _, ok := f.Data.Get("Bill To", "Stray"); ok {
		t.Fatalf("normalise must drop unknown labels")
	}
	if got := len(f.Data["Items"].Items); got != 2 {
		t.Fatalf("expected 2 item rows, got %d", got)
	}
}

func TestDecodeSubmission(t *testing.T) {
	posted := map[string][]string{
		"Bill To.Name":       {"Jane", "ignored"},
		"Items[2].Amount":    {"75"},
		"Items[3].Amount":    {"out of range"},
		render.TemplateField: {"1"},
		"Bill To.Unknown":    {"x"},
	}

	data := render.DecodeSubmission(sections(t), posted)

	want := form.Data{
		"Bill To": {Fields: map[string]string{"Name": "Jane", "Email": ""}},
		"Items": {IsItems: true, Items: []map[string]string{
			{"Description": "", "Amount": ""},
			{"Description": "", "Amount": "75"},
		}},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("decoded data mismatch (-want +got):\n%s", diff)
	}
}
