// Package testsupport holds fixtures and golden-file helpers shared by the
// package tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
)

// InvoiceMapping is a cell mapping exercising every entry shape: a heading,
// a nested group, a plain leaf and an items block.
const InvoiceMapping = `
B2:
  heading: Invoice Number
  datatype: text
Bill To:
  Name: C5
  Email: C6
  Address:
    Street: C7
    City: C8
Notes: B40
Items:
  name: Line Items
  range: {start: 23, end: 25}
  content:
    Description: C
    Quantity: E
    Amount: F
`

// MustMapping parses a YAML or JSON cell mapping or fails the test.
func MustMapping(t testing.TB, source string) cellmap.Mapping {
	t.Helper()
	mapping, err := cellmap.ParseMapping([]byte(source))
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}
	return mapping
}

// InvoiceTemplate returns a registered template using InvoiceMapping for two
// footers, the second one active.
func InvoiceTemplate(t testing.TB) cellmap.Template {
	t.Helper()
	mapping := MustMapping(t, InvoiceMapping)
	registry := cellmap.NewRegistry()
	if err := registry.Register(cellmap.Template{
		ID:   7,
		Name: "Service Invoice",
		Footers: []cellmap.Footer{
			{Name: "Draft", Index: 1},
			{Name: "Final", Index: 2, Active: true},
		},
		LogoCell: "F2",
		Mappings: map[int]cellmap.Mapping{1: mapping, 2: mapping},
	}); err != nil {
		t.Fatalf("register template: %v", err)
	}
	tpl, _ := registry.Template(7)
	return tpl
}

// InvoiceSections generates the sections of InvoiceMapping.
func InvoiceSections(t testing.TB) []form.Section {
	t.Helper()
	return form.GenerateSections(MustMapping(t, InvoiceMapping))
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t testing.TB, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t testing.TB, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// AssertGolden compares got against the golden file at path, rewriting it
// first when UPDATE_GOLDENS is set.
func AssertGolden(t testing.TB, path string, got []byte) {
	t.Helper()
	if WriteMaybeGolden(t, path, got) {
		return
	}
	want := MustReadGoldenString(t, path)
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t testing.TB, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
