package tui_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/tui"
	"github.com/goliatone/go-invoiceform/pkg/testsupport"
)

type stubDriver struct {
	inputs    []string
	textAreas []string
	confirm   []bool
	selectIdx []int
	passwords []string

	inputCfgs  []tui.InputConfig
	selectCfgs []tui.SelectConfig
	info       []string
}

func (s *stubDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	s.inputCfgs = append(s.inputCfgs, cfg)
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted for " + cfg.Message)
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ tui.InputConfig) (string, error) {
	if len(s.passwords) == 0 {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[0]
	s.passwords = s.passwords[1:]
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ tui.ConfirmConfig) (bool, error) {
	if len(s.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[0]
	s.confirm = s.confirm[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	s.selectCfgs = append(s.selectCfgs, cfg)
	if len(s.selectIdx) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[0]
	s.selectIdx = s.selectIdx[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	if len(s.textAreas) == 0 {
		return "", errors.New("no text area scripted for " + cfg.Message)
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func scriptedDriver() *stubDriver {
	return &stubDriver{
		inputs: []string{
			"INV-1", "Jane", "jane@example.com", "1 Main St", "Springfield",
			"2", "150",
			"1", "75",
		},
		textAreas: []string{"Thanks", "Consulting", "Support"},
		confirm:   []bool{true, false},
	}
}

func TestFiller_FillsSectionsAndItems(t *testing.T) {
	driver := scriptedDriver()
	filler := tui.NewFiller(tui.WithPromptDriver(driver), tui.WithTheme(tui.Theme{SectionPrefix: "## "}))
	sections := testsupport.InvoiceSections(t)

	data, err := filler.Fill(context.Background(), sections, nil, render.ErrorMapping{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	cells := form.ToCells(data, sections)
	want := form.CellMap{
		"B2":  "INV-1",
		"C5":  "Jane",
		"C6":  "jane@example.com",
		"C7":  "1 Main St",
		"C8":  "Springfield",
		"B40": "Thanks",
		"C23": "Consulting",
		"E23": "2",
		"F23": "150",
		"C24": "Support",
		"E24": "1",
		"F24": "75",
		"C25": "",
		"E25": "",
		"F25": "",
	}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{"## Invoice Number", "## Bill To", "## Notes", "## Line Items"}
	if diff := cmp.Diff(wantInfo, driver.info); diff != "" {
		t.Fatalf("section headers mismatch (-want +got):\n%s", diff)
	}
	if driver.inputCfgs[0].Help != "Cell B2" {
		t.Fatalf("expected cell hint, got %q", driver.inputCfgs[0].Help)
	}
	if driver.inputCfgs[5].Message != "Quantity #1" {
		t.Fatalf("expected item label, got %q", driver.inputCfgs[5].Message)
	}
}

func TestFiller_EmailValidator(t *testing.T) {
	driver := scriptedDriver()
	filler := tui.NewFiller(tui.WithPromptDriver(driver))
	if _, err := filler.Fill(context.Background(), testsupport.InvoiceSections(t), nil, render.ErrorMapping{}); err != nil {
		t.Fatalf("fill: %v", err)
	}

	email := driver.inputCfgs[2]
	if email.Message != "Email" {
		t.Fatalf("expected email prompt, got %q", email.Message)
	}
	if err := email.Validator("not-an-email"); err == nil || !strings.Contains(err.Error(), "Invalid email format") {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if err := email.Validator(""); err != nil {
		t.Fatalf("empty email must pass, got %v", err)
	}
	if err := driver.inputCfgs[1].Validator("anything"); err != nil {
		t.Fatalf("name must pass, got %v", err)
	}
}

func TestFiller_ShowsErrorsAndDefaults(t *testing.T) {
	sections := testsupport.InvoiceSections(t)
	prefill := form.Initialize(sections)
	if err := prefill.Set("Bill To", "Email", "jane@"); err != nil {
		t.Fatalf("set: %v", err)
	}
	result := form.Validate(prefill, sections)
	errs := render.MapIssues(sections, result.Issues)

	driver := scriptedDriver()
	filler := tui.NewFiller(tui.WithPromptDriver(driver), tui.WithTheme(tui.Theme{ErrorPrefix: "! "}))
	if _, err := filler.Fill(context.Background(), sections, prefill, errs); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if driver.inputCfgs[2].Default != "jane@" {
		t.Fatalf("expected prefilled default, got %q", driver.inputCfgs[2].Default)
	}
	found := false
	for _, msg := range driver.info {
		if msg == "! Invalid email format in Bill To: Email" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error message to be shown, got %v", driver.info)
	}
}

func TestFiller_ChooseTemplateAndFooter(t *testing.T) {
	tpl := testsupport.InvoiceTemplate(t)
	other := cellmap.Template{ID: 9, Name: "Retail"}
	driver := &stubDriver{selectIdx: []int{1, 0}}
	filler := tui.NewFiller(tui.WithPromptDriver(driver))

	chosen, err := filler.ChooseTemplate(context.Background(), []cellmap.Template{other, tpl})
	if err != nil {
		t.Fatalf("choose template: %v", err)
	}
	if chosen.ID != 7 {
		t.Fatalf("expected template 7, got %d", chosen.ID)
	}
	if diff := cmp.Diff([]string{"9: Retail", "7: Service Invoice"}, driver.selectCfgs[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	footer, err := filler.ChooseFooter(context.Background(), tpl)
	if err != nil {
		t.Fatalf("choose footer: %v", err)
	}
	if footer.Name != "Draft" {
		t.Fatalf("expected Draft footer, got %s", footer.Name)
	}
	if driver.selectCfgs[1].DefaultIndex != 1 {
		t.Fatalf("expected active footer as default, got %d", driver.selectCfgs[1].DefaultIndex)
	}

	if _, err := filler.ChooseTemplate(context.Background(), nil); !errors.Is(err, tui.ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestRenderer_SerializesCells(t *testing.T) {
	driver := scriptedDriver()
	renderer := tui.New(tui.WithPromptDriver(driver), tui.WithOutputFormat(tui.OutputFormatCells))
	if renderer.Name() != "tui" || renderer.ContentType() != "application/json" {
		t.Fatalf("unexpected identity %s %s", renderer.Name(), renderer.ContentType())
	}

	f := render.NewForm(testsupport.InvoiceTemplate(t), 2, nil)
	out, err := renderer.Render(context.Background(), f, render.RenderOptions{Title: "New invoice"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var cells map[string]string
	if err := json.Unmarshal(out, &cells); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cells["F24"] != "75" || cells["C6"] != "jane@example.com" {
		t.Fatalf("unexpected cells %v", cells)
	}
	if driver.info[0] != "New invoice" {
		t.Fatalf("expected title first, got %v", driver.info)
	}
}

func TestPretty(t *testing.T) {
	sections := testsupport.InvoiceSections(t)
	data := form.Initialize(sections)
	_ = data.Set("Bill To", "Name", "Jane")
	_ = data.SetItem("Line Items", 0, "Amount", "10")

	want := "Invoice Number\nBill To\n  Name: Jane\nNotes\nLine Items\n  1. Amount=10\n"
	if diff := cmp.Diff(want, tui.Pretty(data, sections)); diff != "" {
		t.Fatalf("pretty mismatch (-want +got):\n%s", diff)
	}
}

func TestFiller_Aborts(t *testing.T) {
	filler := tui.NewFiller(tui.WithPromptDriver(&stubDriver{}))
	if _, err := filler.Fill(context.Background(), testsupport.InvoiceSections(t), nil, render.ErrorMapping{}); err == nil {
		t.Fatalf("expected driver error to abort fill")
	}
}
