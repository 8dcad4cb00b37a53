package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-invoiceform/internal/server"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve templates, validation and documents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			selector, err := html.NewSelector(html.DefaultManifest())
			if err != nil {
				return err
			}
			srv, err := server.New(a.templates,
				server.WithStore(store),
				server.WithLogger(a.logger),
				server.WithRules(form.DefaultRules()...),
				server.WithThemeSelector(selector),
				server.WithTheme(a.cfg.Theme, a.cfg.Variant),
			)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), a.cfg.Listen)
		},
	}
	cmd.Flags().String("listen", "", "address to listen on (default :8080)")
	_ = a.viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}
