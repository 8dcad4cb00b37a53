package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/editor"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/orchestrator"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/tui"
	"github.com/goliatone/go-invoiceform/pkg/sheet"
	"github.com/goliatone/go-invoiceform/pkg/sheet/xlsx"
)

type fillOptions struct {
	templateID int
	footer     int
	dataPath   string
	preset     string
	format     string
	out        string
	xlsxPath   string
	save       string
	encrypt    bool
	attempts   int
}

func newFillCmd(a *app) *cobra.Command {
	var opts fillOptions
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a template interactively",
		Long: `Prompts for every field of a template footer, re-asking for rejected
values, then prints the result and optionally writes it to an xlsx file or
saves it as a stored document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.fill(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.templateID, "template", "t", 0, "template id (default: ask)")
	cmd.Flags().IntVarP(&opts.footer, "footer", "f", 0, "footer index (default: ask)")
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "form data JSON file used as defaults")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "JSON preset file applied to the defaults")
	cmd.Flags().StringVar(&opts.format, "format", string(tui.OutputFormatPrettyText), "output format: json, cells, pretty")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "write the filled workbook to this xlsx file")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the filled workbook under this document name")
	cmd.Flags().BoolVar(&opts.encrypt, "encrypt", false, "ask for a password and encrypt the saved document")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 3, "rounds of prompts before giving up on invalid data")
	return cmd
}

func (a *app) fill(cmd *cobra.Command, opts fillOptions) error {
	ctx := cmd.Context()
	filler := a.filler(cmd.OutOrStdout(), tui.WithRules(form.DefaultRules()...))

	tpl, footer, err := a.chooseTarget(ctx, filler, opts)
	if err != nil {
		return err
	}
	sections := form.SectionsForFooter(tpl, footer.Index)

	defaults, err := readData(cmd, opts.dataPath)
	if err != nil {
		return err
	}
	gen, err := a.orchestrator(opts.preset)
	if err != nil {
		return err
	}
	prepared, err := gen.Prepare(ctx, orchestrator.Request{TemplateID: tpl.ID, Footer: footer.Index, Data: defaults})
	if err != nil {
		return err
	}

	data := prepared.Data
	var errs render.ErrorMapping
	for attempt := 1; ; attempt++ {
		if data, err = filler.Fill(ctx, sections, data, errs); err != nil {
			return err
		}
		result := form.Validate(data, sections, form.DefaultRules()...)
		if result.Valid {
			break
		}
		a.logger.Debug("filled data rejected", "attempt", attempt, "errors", len(result.Errors))
		if attempt >= opts.attempts {
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return errInvalid
		}
		errs = render.MapIssues(sections, result.Issues)
	}

	payload, err := tui.Serialize(tui.OutputFormat(opts.format), data, sections)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, opts.out, payload); err != nil {
		return err
	}

	if opts.xlsxPath == "" && opts.save == "" {
		return nil
	}
	workbook := xlsx.New()
	defer workbook.Close()

	if opts.save != "" {
		if err := a.saveFilled(ctx, filler, workbook, tpl, footer, data, opts); err != nil {
			return err
		}
	} else if _, err := sheet.Apply(ctx, workbook, tpl.SheetID, data, sections); err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if err := workbook.SaveAs(opts.xlsxPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "workbook written to %s\n", opts.xlsxPath)
	}
	return nil
}

func (a *app) chooseTarget(ctx context.Context, filler *tui.Filler, opts fillOptions) (cellmap.Template, cellmap.Footer, error) {
	var (
		tpl cellmap.Template
		err error
	)
	if opts.templateID == 0 {
		if tpl, err = filler.ChooseTemplate(ctx, a.templates.Templates()); err != nil {
			return cellmap.Template{}, cellmap.Footer{}, err
		}
	} else {
		var ok bool
		if tpl, ok = a.templates.Template(opts.templateID); !ok {
			return cellmap.Template{}, cellmap.Footer{}, fmt.Errorf("unknown template %d", opts.templateID)
		}
	}

	if opts.footer == 0 {
		footer, err := filler.ChooseFooter(ctx, tpl)
		return tpl, footer, err
	}
	footer, ok := tpl.Footer(opts.footer)
	if !ok {
		return cellmap.Template{}, cellmap.Footer{}, fmt.Errorf("template %d has no footer %d", tpl.ID, opts.footer)
	}
	return tpl, footer, nil
}

// saveFilled writes data through an editing session so the stored document
// carries the same snapshot the editor would produce.
func (a *app) saveFilled(ctx context.Context, filler *tui.Filler, workbook sheet.Workbook, tpl cellmap.Template, footer cellmap.Footer, data form.Data, opts fillOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := editor.New(a.templates, workbook,
		editor.WithStore(store),
		editor.WithLogger(a.logger),
		editor.WithAutosaveDelay(a.cfg.Autosave),
	)
	if err != nil {
		return err
	}
	defer session.Close(ctx)

	if err := session.SelectTemplate(tpl.ID); err != nil {
		return err
	}
	if err := session.SelectFooter(footer.Index); err != nil {
		return err
	}
	if err := session.Replace(data); err != nil {
		return err
	}
	if _, err := session.Submit(ctx); err != nil {
		return err
	}

	var password string
	if opts.encrypt {
		if password, err = filler.AskPassword(ctx, "Document password"); err != nil {
			return err
		}
	}
	if err := session.SaveAs(ctx, opts.save, password); err != nil {
		return err
	}
	a.logger.Info("document saved", "name", opts.save, "template", tpl.ID, "encrypted", password != "")
	return nil
}
