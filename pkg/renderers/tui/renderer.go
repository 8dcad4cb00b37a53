// Package tui fills invoice forms interactively in a terminal.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

// Renderer implements render.Renderer by prompting for every field and
// serializing what was collected.
type Renderer struct {
	filler       *Filler
	outputFormat OutputFormat
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a terminal renderer (survey driver, JSON output).
func New(options ...Option) *Renderer {
	cfg := newConfig(options)
	return &Renderer{
		filler:       &Filler{driver: cfg.driver, theme: cfg.theme, rules: cfg.rules},
		outputFormat: cfg.outputFormat,
	}
}

// Filler exposes the prompt flow used by Render.
func (r *Renderer) Filler() *Filler {
	return r.filler
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for f and returns the collected data in the configured
// output format.
func (r *Renderer) Render(ctx context.Context, f render.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, fmt.Errorf("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(opts.Title); title != "" {
		if err := r.filler.driver.Info(ctx, title); err != nil {
			return nil, err
		}
	}

	data, err := r.filler.Fill(ctx, f.Sections, f.Data, opts.Errors)
	if err != nil {
		return nil, err
	}
	return Serialize(r.outputFormat, data, f.Sections)
}

// Serialize encodes data in format.
func Serialize(format OutputFormat, data form.Data, sections []form.Section) ([]byte, error) {
	switch format {
	case OutputFormatCells:
		return json.MarshalIndent(form.ToCells(data, sections), "", "  ")
	case OutputFormatPrettyText:
		return []byte(Pretty(data, sections)), nil
	default:
		return json.MarshalIndent(data, "", "  ")
	}
}

// Pretty prints non-empty values section by section.
func Pretty(data form.Data, sections []form.Section) string {
	var b strings.Builder
	for _, section := range sections {
		values := data[section.Title]
		if values == nil {
			continue
		}
		fmt.Fprintf(&b, "%s\n", section.Title)
		if section.IsItems && section.Items != nil {
			for i, row := range values.Items {
				var parts []string
				for _, col := range section.Items.Content {
					if v := row[col.Field]; v != "" {
						parts = append(parts, col.Field+"="+v)
					}
				}
				if len(parts) > 0 {
					fmt.Fprintf(&b, "  %d. %s\n", i+1, strings.Join(parts, ", "))
				}
			}
			continue
		}
		for _, field := range section.Fields {
			if v := values.Fields[field.Label]; v != "" {
				fmt.Fprintf(&b, "  %s: %s\n", field.Label, v)
			}
		}
	}
	return b.String()
}
