// Package invoiceform turns spreadsheet invoice templates into forms and back
// into cell writes. This package bundles default templates and shortcuts over
// the pkg/ building blocks.
package invoiceform

import (
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/orchestrator"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
	"github.com/goliatone/go-invoiceform/pkg/storage"
	"github.com/goliatone/go-invoiceform/pkg/storage/sqlite"
)

// RenderOptions re-exports render.RenderOptions.
type RenderOptions = render.RenderOptions

// NewOrchestrator returns an orchestrator over templates with the default
// HTML renderer.
func NewOrchestrator(templates *cellmap.Registry, options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(append([]orchestrator.Option{orchestrator.WithTemplates(templates)}, options...)...)
}

// GenerateHTML renders the HTML preview of a template footer. A zero footer
// picks the active one.
func GenerateHTML(ctx context.Context, templates *cellmap.Registry, templateID, footer int, data form.Data, options ...orchestrator.Option) ([]byte, error) {
	result, err := NewOrchestrator(templates, options...).Generate(ctx, orchestrator.Request{
		TemplateID: templateID,
		Footer:     footer,
		Data:       data,
		Renderer:   html.Name,
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// WithThemeSelector passes a go-theme selector through to the orchestrator.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithDefaultTheme registers the built-in theme and selects it, optionally in
// a variant such as "dark".
func WithDefaultTheme(variant string) (orchestrator.Option, error) {
	selector, err := html.NewSelector(html.DefaultManifest())
	if err != nil {
		return nil, err
	}
	return func(o *orchestrator.Orchestrator) {
		orchestrator.WithThemeSelector(selector)(o)
		orchestrator.WithThemeDefaults(html.DefaultThemeName, variant)(o)
	}, nil
}

// StoreConfig configures OpenStore.
type StoreConfig struct {
	// Path of the SQLite database. ":memory:" keeps documents in memory.
	Path string
	// Quota caps the total stored bytes. Zero disables the cap.
	Quota int64
	// KDF overrides the key derivation cost of encrypted documents.
	KDF *storage.KDFParams
}

// Store is a document store plus the database it owns.
type Store struct {
	*storage.Local
	kv *sqlite.KV
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.kv.Close()
}

// OpenStore opens a SQLite-backed document store.
func OpenStore(cfg StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	opts := []sqlite.Option{sqlite.WithMkdirAll()}
	if cfg.Quota > 0 {
		opts = append(opts, sqlite.WithQuota(cfg.Quota))
	}
	kv, err := sqlite.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("invoiceform: open store: %w", err)
	}

	var cipherOpts []storage.CipherOption
	if cfg.KDF != nil {
		cipherOpts = append(cipherOpts, storage.WithKDFParams(*cfg.KDF))
	}
	local := storage.NewLocal(kv, storage.WithCipher(storage.NewCipher(cipherOpts...)))
	return &Store{Local: local, kv: kv}, nil
}
