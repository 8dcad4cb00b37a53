package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
)

const invoiceMapping = `
Bill To:
  Name: C5
  Email: C6
Items:
  range: {start: 23, end: 24}
  content:
    Description: C
    Amount: F
`

func sections(t *testing.T) []form.Section {
	t.Helper()
	mapping, err := cellmap.ParseMapping([]byte(invoiceMapping))
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}
	return form.GenerateSections(mapping)
}

func TestMapIssues(t *testing.T) {
	issues := []form.Issue{
		{Section: "Bill To", Field: "Email", Message: "Invalid email format in Bill To: Email"},
		{Section: "Items", Field: "Amount", Item: 2, Message: "Amount must be a number"},
		{Section: "Items", Field: "Amount", Item: 2, Message: " Amount must be a number "},
		{Section: "Ship To", Field: "Email", Message: "Unknown section"},
	}

	mapped := render.MapIssues(sections(t), issues)

	wantFields := map[string][]string{
		"Bill To.Email":   {"Invalid email format in Bill To: Email"},
		"Items[2].Amount": {"Amount must be a number"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Unknown section"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if mapped.Empty() {
		t.Fatalf("expected messages")
	}
}

func TestMapErrorPayload_PathStyles(t *testing.T) {
	payload := map[string][]string{
		"bill to.name":         {"Name is required"},
		"/Bill To/Email":       {"Email invalid"},
		"/Items/0/Description": {"Description missing"},
		"Items[2].Amount":      {"Amount invalid"},
		"/Items/7/Amount":      {"Row out of range"},
		"non_field_errors":     {"Form level error"},
		"":                     {"Unscoped form error"},
		"Bill To.Phone":        {"  "},
	}

	mapped := render.MapErrorPayload(sections(t), payload)

	wantFields := map[string][]string{
		"Bill To.Name":         {"Name is required"},
		"Bill To.Email":        {"Email invalid"},
		"Items[1].Description": {"Description missing"},
		"Items[2].Amount":      {"Amount invalid"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Row out of range", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorMapping_Merge(t *testing.T) {
	base := render.ErrorMapping{
		Fields: map[string][]string{"Bill To.Email": {"Invalid email format"}},
		Form:   []string{"server unavailable"},
	}
	client := render.MapErrorPayload(sections(t), map[string][]string{
		"/Bill To/Email": {"Invalid email format", "Email already used"},
		"Bill To.Name":   {"Name is required"},
		"form":           {"server unavailable", "draft expired"},
	})

	want := render.ErrorMapping{
		Fields: map[string][]string{
			"Bill To.Email": {"Invalid email format", "Email already used"},
			"Bill To.Name":  {"Name is required"},
		},
		Form: []string{"server unavailable", "draft expired"},
	}
	if diff := cmp.Diff(want, base.Merge(client)); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(base, base.Merge(render.ErrorMapping{})); diff != "" {
		t.Fatalf("merging nothing should keep the mapping (-want +got):\n%s", diff)
	}
}

func TestMapIssues_Empty(t *testing.T) {
	mapped := render.MapIssues(sections(t), nil)
	if !mapped.Empty() || mapped.Fields != nil {
		t.Fatalf("expected empty mapping, got %#v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
