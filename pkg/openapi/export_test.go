package openapi_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/openapi"
	"github.com/goliatone/go-invoiceform/pkg/testsupport"
)

func TestExport_ValidDocument(t *testing.T) {
	tpl := testsupport.InvoiceTemplate(t)
	doc := openapi.Export(tpl, openapi.WithServer("http://localhost:8080"))

	if doc.Info.Title != "Service Invoice" || doc.Info.Version != openapi.DefaultVersion {
		t.Fatalf("unexpected info %+v", doc.Info)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := openapi3.NewLoader().LoadFromData(raw)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("validate reloaded: %v", err)
	}

	var names []string
	for name := range loaded.Components.Schemas {
		names = append(names, name)
	}
	if len(names) != 2 {
		t.Fatalf("expected one schema per footer, got %v", names)
	}
	if loaded.Paths.Find("/templates/7/footers/2/cells") == nil {
		t.Fatalf("expected cells path for footer 2")
	}
}

func TestFormSchema_Shapes(t *testing.T) {
	sections := testsupport.InvoiceSections(t)
	schema := openapi.FormSchema(sections)

	billTo := schema.Properties["Bill To"].Value
	if !billTo.Type.Is(openapi3.TypeObject) {
		t.Fatalf("flat section must be an object, got %v", billTo.Type)
	}
	email := billTo.Properties["Email"].Value
	if email.Format != "email" || email.Extensions[openapi.ExtCell] != "C6" {
		t.Fatalf("unexpected email schema %+v", email)
	}
	if got := billTo.Properties["Address City"].Value.Extensions[openapi.ExtOrder]; got != 3 {
		t.Fatalf("expected field order 3, got %v", got)
	}

	items := schema.Properties["Line Items"].Value
	if !items.Type.Is(openapi3.TypeArray) {
		t.Fatalf("items section must be an array, got %v", items.Type)
	}
	if items.MaxItems == nil || *items.MaxItems != 3 {
		t.Fatalf("expected maxItems 3, got %v", items.MaxItems)
	}
	amount := items.Items.Value.Properties["Amount"].Value
	if amount.Format != "decimal" || amount.Extensions[openapi.ExtColumn] != "F" {
		t.Fatalf("unexpected amount schema %+v", amount)
	}
	wantRange := map[string]int{"start": 23, "end": 25}
	if diff := cmp.Diff(wantRange, items.Extensions[openapi.ExtRange]); diff != "" {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}

	if got := schema.Properties["Invoice Number"].Value.Extensions[openapi.ExtOrder]; got != 0 {
		t.Fatalf("expected first section order 0, got %v", got)
	}
}

func TestExportFooter_WithoutPaths(t *testing.T) {
	tpl := testsupport.InvoiceTemplate(t)
	footer, _ := tpl.ActiveFooter()
	doc := openapi.ExportFooter(tpl, footer, testsupport.InvoiceSections(t), openapi.WithoutPaths(), openapi.WithTitle("Invoice API"))

	if doc.Paths.Len() != 0 {
		t.Fatalf("expected no paths, got %d", doc.Paths.Len())
	}
	ref, ok := doc.Components.Schemas[openapi.SchemaName(tpl, footer)]
	if !ok {
		t.Fatalf("missing footer schema")
	}
	if ref.Value.Title != "Final" || ref.Value.Extensions[openapi.ExtTemplate] != 7 {
		t.Fatalf("unexpected footer schema %+v", ref.Value)
	}
	if doc.Info.Title != "Invoice API" {
		t.Fatalf("title override ignored: %s", doc.Info.Title)
	}
}
