package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
)

// Filler walks form sections and prompts for every value.
type Filler struct {
	driver PromptDriver
	theme  Theme
	rules  []form.Rule
}

// NewFiller constructs a Filler. Without WithPromptDriver it prompts on the
// terminal through survey.
func NewFiller(options ...Option) *Filler {
	cfg := newConfig(options)
	return &Filler{driver: cfg.driver, theme: cfg.theme, rules: cfg.rules}
}

func newConfig(options []Option) config {
	cfg := config{outputFormat: OutputFormatJSON, rules: form.DefaultRules()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.driver == nil {
		cfg.driver = NewSurveyDriver(nil)
	}
	if len(cfg.rules) == 0 {
		cfg.rules = form.DefaultRules()
	}
	return cfg
}

// Fill prompts for every field of sections, using the values already in data
// as defaults, and returns the updated copy. errs are shown next to the
// fields they belong to. Item sections are filled row by row until the user
// declines another item or the range is exhausted.
func (f *Filler) Fill(ctx context.Context, sections []form.Section, data form.Data, errs render.ErrorMapping) (form.Data, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if f.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	out := form.Normalize(data, sections)
	for _, message := range errs.Form {
		if err := f.driver.Info(ctx, f.theme.ErrorPrefix+message); err != nil {
			return nil, err
		}
	}

	for _, section := range sections {
		if err := f.driver.Info(ctx, f.theme.SectionPrefix+section.Title); err != nil {
			return nil, err
		}
		var err error
		if section.IsItems {
			err = f.fillItems(ctx, section, out, errs)
		} else {
			err = f.fillFields(ctx, section, out, errs)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *Filler) fillFields(ctx context.Context, section form.Section, data form.Data, errs render.ErrorMapping) error {
	for _, field := range section.Fields {
		current, _ := data.Get(section.Title, field.Label)
		value, err := f.ask(ctx, form.FieldContext{
			Section: section.Title,
			Label:   field.Label,
			Type:    field.Type,
			Value:   current,
		}, field.Cell, errs.For(render.FieldPath(section.Title, field.Label)))
		if err != nil {
			return err
		}
		if err := data.Set(section.Title, field.Label, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillItems(ctx context.Context, section form.Section, data form.Data, errs render.ErrorMapping) error {
	if section.Items == nil {
		return nil
	}
	for row := 0; row < section.Rows(); row++ {
		if row > 0 {
			more, err := f.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Fill another item in %s?", section.Title),
				Default: rowHasValues(data, section, row),
			})
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		for _, col := range section.Items.Content {
			current, _ := data.Item(section.Title, row, col.Field)
			cell := cellmap.CellName(col.Letters, section.Items.Range.Start+row)
			value, err := f.ask(ctx, form.FieldContext{
				Section: section.Title,
				Label:   col.Field,
				Type:    form.Classify(col.Field),
				Value:   current,
				Item:    row + 1,
			}, cell, errs.For(render.ItemPath(section.Title, row+1, col.Field)))
			if err != nil {
				return err
			}
			if err := data.SetItem(section.Title, row, col.Field, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Filler) ask(ctx context.Context, field form.FieldContext, cell string, messages []string) (string, error) {
	for _, message := range messages {
		if err := f.driver.Info(ctx, f.theme.ErrorPrefix+message); err != nil {
			return "", err
		}
	}

	label := field.Label
	if field.Item > 0 {
		label = fmt.Sprintf("%s #%d", field.Label, field.Item)
	}
	help := "Cell " + cell

	if field.Type == form.FieldTypeTextarea {
		return f.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: field.Value, Help: help})
	}
	return f.driver.Input(ctx, InputConfig{
		Message: label,
		Default: field.Value,
		Help:    help,
		Validator: func(answer string) error {
			candidate := field
			candidate.Value = strings.TrimSpace(answer)
			for _, rule := range f.rules {
				if rule == nil {
					continue
				}
				if msg := rule(candidate); msg != "" {
					return errors.New(msg)
				}
			}
			return nil
		},
	})
}

// ChooseTemplate asks which template to fill. Templates are listed as
// "<id>: <name>".
func (f *Filler) ChooseTemplate(ctx context.Context, templates []cellmap.Template) (cellmap.Template, error) {
	if len(templates) == 0 {
		return cellmap.Template{}, ErrNoChoices
	}
	options := make([]string, len(templates))
	for i, tpl := range templates {
		options[i] = fmt.Sprintf("%d: %s", tpl.ID, tpl.Name)
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: "Template", Options: options})
	if err != nil {
		return cellmap.Template{}, err
	}
	if idx < 0 || idx >= len(templates) {
		return cellmap.Template{}, ErrNoChoices
	}
	return templates[idx], nil
}

// ChooseFooter asks which footer of tpl to fill, defaulting to the active one.
// Templates with a single footer are not prompted.
func (f *Filler) ChooseFooter(ctx context.Context, tpl cellmap.Template) (cellmap.Footer, error) {
	switch len(tpl.Footers) {
	case 0:
		return cellmap.Footer{}, ErrNoChoices
	case 1:
		return tpl.Footers[0], nil
	}

	options := make([]string, len(tpl.Footers))
	defaultIndex := 0
	active, _ := tpl.ActiveFooter()
	for i, footer := range tpl.Footers {
		options[i] = footer.Name
		if footer.Index == active.Index {
			defaultIndex = i
		}
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: "Footer", Options: options, DefaultIndex: defaultIndex})
	if err != nil {
		return cellmap.Footer{}, err
	}
	if idx < 0 || idx >= len(tpl.Footers) {
		return cellmap.Footer{}, ErrNoChoices
	}
	return tpl.Footers[idx], nil
}

// AskPassword prompts for a document password without echo.
func (f *Filler) AskPassword(ctx context.Context, message string) (string, error) {
	return f.driver.Password(ctx, InputConfig{Message: message})
}

func rowHasValues(data form.Data, section form.Section, row int) bool {
	for _, col := range section.Items.Content {
		if v, _ := data.Item(section.Title, row, col.Field); v != "" {
			return true
		}
	}
	return false
}
