package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/form"
)

const invoiceForm = `
Invoice Number: C18
Bill To:
  Name: C5
  Email: C6
Items:
  range: {start: 23, end: 24}
  content:
    Description: C
    Amount: F
`

func TestToCells(t *testing.T) {
	sections := form.GenerateSections(mustMapping(t, invoiceForm))
	data := form.Initialize(sections)
	mustSet(t, data.Set("Bill To", "Name", "Jane"))
	mustSet(t, data.SetItem("Items", 0, "Description", "Design"))
	mustSet(t, data.SetItem("Items", 0, "Amount", "12.5"))

	got := form.ToCells(data, sections)
	want := form.CellMap{
		"C5":  "Jane",
		"C23": "Design",
		"F23": "12.5",
		"C24": "",
		"F24": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestToCells_CapsItemRowsAtRangeEnd(t *testing.T) {
	sections := form.GenerateSections(mustMapping(t, invoiceForm))
	data := form.Initialize(sections)
	data["Items"].Items = append(data["Items"].Items, map[string]string{"Description": "overflow", "Amount": "1"})

	got := form.ToCells(data, sections)
	if _, ok := got["C25"]; ok {
		t.Fatalf("row past range end was emitted: %#v", got)
	}
}

func TestCellMap_Coordinates(t *testing.T) {
	cells := form.CellMap{"F23": "", "C5": "", "AA1": "", "B23": "", "C18": "", "notacell": ""}
	want := []string{"AA1", "C5", "C18", "B23", "F23", "notacell"}
	if diff := cmp.Diff(want, cells.Coordinates()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCells_RoundTrip(t *testing.T) {
	sections := form.GenerateSections(mustMapping(t, invoiceForm))
	data := form.Initialize(sections)
	mustSet(t, data.Set("Invoice Number", "Invoice Number", "INV-7"))
	mustSet(t, data.Set("Bill To", "Email", "jane@example.com"))
	mustSet(t, data.SetItem("Items", 1, "Amount", "3"))

	got := form.FromCells(form.ToCells(data, sections), sections)
	if diff := cmp.Diff(data, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundCells(t *testing.T) {
	sections := form.GenerateSections(mustMapping(t, invoiceForm))
	want := []string{"C5", "C6", "C18", "C23", "F23", "C24", "F24"}
	if diff := cmp.Diff(want, form.BoundCells(sections)); diff != "" {
		t.Fatalf("bound cells mismatch (-want +got):\n%s", diff)
	}
}
