package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-invoiceform/pkg/sheet/xlsx"
	"github.com/goliatone/go-invoiceform/pkg/storage"
)

func newDocsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage saved documents",
	}
	cmd.AddCommand(
		newDocsListCmd(a),
		newDocsShowCmd(a),
		newDocsDeleteCmd(a),
		newDocsExportCmd(a),
	)
	return cmd
}

func newDocsListCmd(a *app) *cobra.Command {
	var templateID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var docs []storage.Summary
			if templateID > 0 {
				docs, err = store.ListByTemplate(cmd.Context(), templateID)
			} else {
				docs, err = store.List(cmd.Context())
			}
			if err != nil {
				return userError(err, "listing files")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTEMPLATE\tFOOTER\tENCRYPTED\tMODIFIED")
			for _, doc := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%s\n",
					doc.Name, doc.TemplateID, doc.Footer, doc.Encrypted, formatModified(doc.Modified))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&templateID, "template", "t", 0, "only documents of this template")
	return cmd
}

func newDocsShowCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a saved document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.GetWithPassword(cmd.Context(), args[0], password)
			if err != nil {
				return userError(err, "opening file")
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password of an encrypted document")
	return cmd
}

func newDocsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return userError(err, "deleting file")
			}
			a.logger.Info("document deleted", "name", args[0])
			return nil
		},
	}
}

func newDocsExportCmd(a *app) *cobra.Command {
	var password, out string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a saved document to an xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.GetWithPassword(cmd.Context(), args[0], password)
			if err != nil {
				return userError(err, "opening file")
			}
			workbook := xlsx.New()
			defer workbook.Close()
			content, err := storage.DecodeContent(doc.Content)
			if err != nil {
				return err
			}
			if err := workbook.Restore(cmd.Context(), content); err != nil {
				return fmt.Errorf("restore %s: %w", doc.Name, err)
			}

			path := out
			if path == "" {
				path = doc.Name + ".xlsx"
			}
			if err := workbook.SaveAs(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "workbook written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password of an encrypted document")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: NAME.xlsx)")
	return cmd
}

// userError pairs the storage user message with the underlying error.
func userError(err error, action string) error {
	return fmt.Errorf("%s: %w", storage.UserMessage(err, action), err)
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
