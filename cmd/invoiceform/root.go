package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	invoiceform "github.com/goliatone/go-invoiceform"
	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/renderers/tui"
)

// app carries what every subcommand needs once flags and config are merged.
type app struct {
	viper      *viper.Viper
	configFile string
	cfg        Config
	logger     *slog.Logger
	templates  *cellmap.Registry

	// prompts overrides the interactive survey driver, for tests.
	prompts tui.PromptDriver
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{viper: viper.New()})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "invoiceform",
		Short:         "Fill, validate and store spreadsheet invoices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./invoiceform.yaml)")
	flags.String("db", "", "SQLite database holding saved documents")
	flags.String("templates", "", "directory of template YAML files (default: built-in templates)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	for flag, key := range map[string]string{"db": "db", "templates": "templates", "log-level": "log_level"} {
		_ = a.viper.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newTemplatesCmd(a),
		newSectionsCmd(a),
		newValidateCmd(a),
		newCellsCmd(a),
		newSchemaCmd(a),
		newPreviewCmd(a),
		newFillCmd(a),
		newDocsCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := loadConfig(a.viper, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = newLogger(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.Templates == "" {
		a.templates, err = invoiceform.DefaultTemplates()
	} else {
		a.templates, err = invoiceform.LoadTemplates(os.DirFS(cfg.Templates))
	}
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	a.logger.Debug("templates loaded", "count", a.templates.Len(), "dir", cfg.Templates)
	return nil
}

func (a *app) openStore() (*invoiceform.Store, error) {
	return invoiceform.OpenStore(invoiceform.StoreConfig{Path: a.cfg.DB, Quota: a.cfg.Quota})
}

func (a *app) filler(out io.Writer, options ...tui.Option) *tui.Filler {
	driver := a.prompts
	if driver == nil {
		driver = tui.NewSurveyDriver(out)
	}
	return tui.New(append([]tui.Option{tui.WithPromptDriver(driver)}, options...)...).Filler()
}

// lookup returns the template and the sections of the requested footer. A
// zero footer picks the active one.
func (a *app) lookup(templateID, footer int) (cellmap.Template, cellmap.Footer, []form.Section, error) {
	tpl, ok := a.templates.Template(templateID)
	if !ok {
		return cellmap.Template{}, cellmap.Footer{}, nil, fmt.Errorf("unknown template %d", templateID)
	}
	if footer == 0 {
		active, ok := tpl.ActiveFooter()
		if !ok {
			return cellmap.Template{}, cellmap.Footer{}, nil, fmt.Errorf("template %d has no footers", templateID)
		}
		footer = active.Index
	}
	selected, ok := tpl.Footer(footer)
	if !ok {
		return cellmap.Template{}, cellmap.Footer{}, nil, fmt.Errorf("template %d has no footer %d", templateID, footer)
	}
	return tpl, selected, form.SectionsForFooter(tpl, selected.Index), nil
}

// readData decodes form data from path, or from stdin when path is "-".
func readData(cmd *cobra.Command, path string) (form.Data, error) {
	var (
		raw []byte
		err error
	)
	switch path {
	case "":
		return form.Data{}, nil
	case "-":
		raw, err = io.ReadAll(cmd.InOrStdin())
	default:
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data form.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes payload to path, or to the command output when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, payload []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}

func addTemplateFlags(cmd *cobra.Command, templateID, footer *int) {
	cmd.Flags().IntVarP(templateID, "template", "t", 1, "template id")
	cmd.Flags().IntVarP(footer, "footer", "f", 0, "footer index (default: the active footer)")
}
