package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	invoiceform "github.com/goliatone/go-invoiceform"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/openapi"
	"github.com/goliatone/go-invoiceform/pkg/orchestrator"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

// errInvalid is returned after an invalid validation result was printed, so
// the process exits non-zero.
var errInvalid = errors.New("form data is invalid")

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available templates and their footers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSHEET\tFOOTERS")
			for _, tpl := range a.templates.Templates() {
				footers := make([]string, len(tpl.Footers))
				for i, footer := range tpl.Footers {
					footers[i] = fmt.Sprintf("%d:%s", footer.Index, footer.Name)
					if footer.Active {
						footers[i] += "*"
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", tpl.ID, tpl.Name, tpl.SheetID, strings.Join(footers, ", "))
			}
			return tw.Flush()
		},
	}
}

func newSectionsCmd(a *app) *cobra.Command {
	var templateID, footer int
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Print the form sections of a template footer as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, sections, err := a.lookup(templateID, footer)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sections)
		},
	}
	addTemplateFlags(cmd, &templateID, &footer)
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		templateID, footer int
		dataPath           string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate form data against a template footer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, sections, err := a.lookup(templateID, footer)
			if err != nil {
				return err
			}
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			result := form.Validate(form.Normalize(data, sections), sections, form.DefaultRules()...)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Valid {
				return errInvalid
			}
			return nil
		},
	}
	addTemplateFlags(cmd, &templateID, &footer)
	cmd.Flags().StringVarP(&dataPath, "data", "d", "-", "form data JSON file, - for stdin")
	return cmd
}

func newCellsCmd(a *app) *cobra.Command {
	var (
		templateID, footer int
		dataPath           string
	)
	cmd := &cobra.Command{
		Use:   "cells",
		Short: "Convert valid form data to the cell writes it produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, sections, err := a.lookup(templateID, footer)
			if err != nil {
				return err
			}
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			data = form.Normalize(data, sections)
			if result := form.Validate(data, sections, form.DefaultRules()...); !result.Valid {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				return errInvalid
			}
			return writeJSON(cmd.OutOrStdout(), form.ToCells(data, sections))
		},
	}
	addTemplateFlags(cmd, &templateID, &footer)
	cmd.Flags().StringVarP(&dataPath, "data", "d", "-", "form data JSON file, - for stdin")
	return cmd
}

func newSchemaCmd(a *app) *cobra.Command {
	var (
		templateID, footer int
		format, server     string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export a template as an OpenAPI 3 document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, ok := a.templates.Template(templateID)
			if !ok {
				return fmt.Errorf("unknown template %d", templateID)
			}
			opts := []openapi.Option{openapi.WithServer(server)}
			doc := openapi.Export(tpl, opts...)
			if footer != 0 {
				_, selected, sections, err := a.lookup(templateID, footer)
				if err != nil {
					return err
				}
				doc = openapi.ExportFooter(tpl, selected, sections, opts...)
			}

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), doc)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (json, yaml)", format)
			}
		},
	}
	cmd.Flags().IntVarP(&templateID, "template", "t", 1, "template id")
	cmd.Flags().IntVarP(&footer, "footer", "f", 0, "export only this footer")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, yaml")
	cmd.Flags().StringVar(&server, "server", "", "server URL recorded in the document")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		templateID, footer int
		dataPath, preset   string
		out, action        string
		validate           bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a template footer as an HTML form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			gen, err := a.orchestrator(preset)
			if err != nil {
				return err
			}
			result, err := gen.Generate(cmd.Context(), orchestrator.Request{
				TemplateID:    templateID,
				Footer:        footer,
				Data:          data,
				Validate:      validate,
				Palette:       a.cfg.Palette,
				RenderOptions: render.RenderOptions{Action: action},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, result.Output)
		},
	}
	addTemplateFlags(cmd, &templateID, &footer)
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "form data JSON file, - for stdin")
	cmd.Flags().StringVar(&preset, "preset", "", "JSON preset file applied before rendering")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&action, "action", "", "form action URL")
	cmd.Flags().BoolVar(&validate, "validate", false, "render validation messages next to the fields")
	cmd.Flags().String("theme", "", "theme name")
	cmd.Flags().String("variant", "", "theme variant, such as dark")
	for _, key := range []string{"theme", "variant"} {
		_ = a.viper.BindPFlag(key, cmd.Flags().Lookup(key))
	}
	return cmd
}

// orchestrator builds the render pipeline with the configured theme and an
// optional preset file.
func (a *app) orchestrator(presetPath string) (*orchestrator.Orchestrator, error) {
	selector, err := html.NewSelector(html.DefaultManifest())
	if err != nil {
		return nil, err
	}
	opts := []orchestrator.Option{
		orchestrator.WithThemeSelector(selector),
		orchestrator.WithThemeDefaults(a.cfg.Theme, a.cfg.Variant),
		orchestrator.WithRules(form.DefaultRules()...),
	}
	if presetPath != "" {
		raw, err := os.ReadFile(presetPath)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewJSONPresetTransformer(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithTransformer(preset))
	}
	return invoiceform.NewOrchestrator(a.templates, opts...), nil
}
