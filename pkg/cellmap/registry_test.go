package cellmap_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
)

const templatesYAML = `
templates:
  - id: 2
    name: Service Invoice
    sheet: sheet2
    logoCell: f5
    footers:
      - {name: Standard, index: 1, isActive: false}
      - {name: Hourly, index: 2, isActive: true}
    cellMappings:
      "1":
        Invoice Number: C18
      "2":
        Invoice Number: C18
        Items:
          range: {start: 23, end: 25}
          content:
            Hours: E
  - id: 1
    name: Basic Invoice
`

func TestLoadFS_RegistersTemplatesWithDefaults(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/invoices.yaml": {Data: []byte(templatesYAML)},
		"templates/README.md":     {Data: []byte("ignored")},
	}

	registry, err := cellmap.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	templates := registry.Templates()
	if len(templates) != 2 || templates[0].ID != 1 || templates[1].ID != 2 {
		t.Fatalf("expected templates sorted by id, got %#v", templates)
	}

	basic := templates[0]
	if basic.SheetID != cellmap.DefaultSheetID {
		t.Fatalf("sheet default mismatch: %q", basic.SheetID)
	}
	wantFooters := []cellmap.Footer{{Name: "Basic Invoice", Index: 1, Active: true}}
	if diff := cmp.Diff(wantFooters, basic.Footers); diff != "" {
		t.Fatalf("default footer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cellmap.DefaultMapping(), basic.Mapping(1)); diff != "" {
		t.Fatalf("default mapping mismatch (-want +got):\n%s", diff)
	}

	service, ok := registry.Template(2)
	if !ok {
		t.Fatalf("template 2 not registered")
	}
	if service.LogoCell != "F5" {
		t.Fatalf("logo cell not normalised: %q", service.LogoCell)
	}
	footer, ok := service.ActiveFooter()
	if !ok || footer.Index != 2 {
		t.Fatalf("active footer mismatch: %#v", footer)
	}
	if _, ok := service.Mapping(2).Lookup(cellmap.ItemsKey); !ok {
		t.Fatalf("footer 2 mapping missing items")
	}
	if !service.Mapping(9).Empty() {
		t.Fatalf("unknown footer should yield an empty mapping")
	}
}

func TestLoadFS_DuplicateTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("templates:\n  - {id: 1, name: One}\n")},
		"b.json": {Data: []byte(`{"templates": [{"id": 1, "name": "Other"}]}`)},
	}

	_, err := cellmap.LoadFS(fsys)
	if !errors.Is(err, cellmap.ErrDuplicateTemplate) {
		t.Fatalf("expected ErrDuplicateTemplate, got %v", err)
	}
}

func TestLoadFS_NilFS(t *testing.T) {
	registry, err := cellmap.LoadFS(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestRegistry_RejectsInvalidTemplates(t *testing.T) {
	tests := []struct {
		name string
		tpl  cellmap.Template
	}{
		{name: "missing id", tpl: cellmap.Template{Name: "x"}},
		{name: "missing name", tpl: cellmap.Template{ID: 3}},
		{name: "bad logo cell", tpl: cellmap.Template{ID: 3, Name: "x", LogoCell: "logo"}},
		{
			name: "mapping for unknown footer",
			tpl: cellmap.Template{
				ID:       3,
				Name:     "x",
				Footers:  []cellmap.Footer{{Name: "x", Index: 1}},
				Mappings: map[int]cellmap.Mapping{4: {}},
			},
		},
		{
			name: "duplicate footer index",
			tpl: cellmap.Template{
				ID:      3,
				Name:    "x",
				Footers: []cellmap.Footer{{Name: "a", Index: 1}, {Name: "b", Index: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cellmap.NewRegistry().Register(tt.tpl)
			if !errors.Is(err, cellmap.ErrInvalidTemplate) {
				t.Fatalf("expected ErrInvalidTemplate, got %v", err)
			}
		})
	}
}

func TestTemplate_ActiveFooterFallsBackToFirst(t *testing.T) {
	tpl := cellmap.Template{Footers: []cellmap.Footer{{Name: "a", Index: 3}, {Name: "b", Index: 4}}}
	footer, ok := tpl.ActiveFooter()
	if !ok || footer.Index != 3 {
		t.Fatalf("expected first footer, got %#v", footer)
	}

	if _, ok := (cellmap.Template{}).ActiveFooter(); ok {
		t.Fatalf("template without footers should report no active footer")
	}
}

func TestMergeMappings(t *testing.T) {
	base := cellmap.Mapping{Entries: []cellmap.Entry{
		{Key: "Invoice Number", Value: cellmap.Leaf{Cell: "C18"}},
		{Key: "Bill To", Value: cellmap.Group{Entries: []cellmap.Entry{
			{Key: "Name", Value: cellmap.Leaf{Cell: "C5"}},
			{Key: "Email", Value: cellmap.Leaf{Cell: "C6"}},
		}}},
	}}
	override := cellmap.Mapping{Entries: []cellmap.Entry{
		{Key: "Bill To", Value: cellmap.Group{Entries: []cellmap.Entry{
			{Key: "Email", Value: cellmap.Leaf{Cell: "D6"}},
			{Key: "Phone", Value: cellmap.Leaf{Cell: "C7"}},
		}}},
		{Key: "Invoice Number", Value: cellmap.Leaf{Cell: "D18"}},
		{Key: "Notes", Value: cellmap.Leaf{Cell: "B40"}},
	}}

	want := cellmap.Mapping{Entries: []cellmap.Entry{
		{Key: "Invoice Number", Value: cellmap.Leaf{Cell: "D18"}},
		{Key: "Bill To", Value: cellmap.Group{Entries: []cellmap.Entry{
			{Key: "Name", Value: cellmap.Leaf{Cell: "C5"}},
			{Key: "Email", Value: cellmap.Leaf{Cell: "D6"}},
			{Key: "Phone", Value: cellmap.Leaf{Cell: "C7"}},
		}}},
		{Key: "Notes", Value: cellmap.Leaf{Cell: "B40"}},
	}}

	if diff := cmp.Diff(want, cellmap.MergeMappings(base, override)); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCellHelpers(t *testing.T) {
	if cell, err := cellmap.NormalizeCell(" b15 "); err != nil || cell != "B15" {
		t.Fatalf("NormalizeCell: %q, %v", cell, err)
	}
	if _, err := cellmap.NormalizeCell("Name"); !errors.Is(err, cellmap.ErrInvalidCell) {
		t.Fatalf("expected ErrInvalidCell, got %v", err)
	}
	col, row, err := cellmap.CellPosition("AB12")
	if err != nil || col != 28 || row != 12 {
		t.Fatalf("CellPosition: %d %d %v", col, row, err)
	}
	if got := cellmap.CellName("F", 23); got != "F23" {
		t.Fatalf("CellName: %q", got)
	}
}
