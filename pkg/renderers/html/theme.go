package html

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// Theme token names understood by the form template.
const (
	TokenBackground = "background"
	TokenFont       = "font"
	TokenAccent     = "accent"
	TokenError      = "error"
	TokenBorder     = "border"
)

// DefaultThemeName is the theme Select falls back to for an empty name.
const DefaultThemeName = "invoice"

// Palette is a user chosen colour pair that overrides the theme tokens, as
// picked for the sheet background and font.
type Palette struct {
	Background string `json:"background,omitempty" mapstructure:"background"`
	Font       string `json:"font,omitempty" mapstructure:"font"`
}

// Tokens returns the non-empty palette colours keyed by token name.
func (p Palette) Tokens() map[string]string {
	tokens := map[string]string{}
	if c := strings.TrimSpace(p.Background); c != "" {
		tokens[TokenBackground] = c
	}
	if c := strings.TrimSpace(p.Font); c != "" {
		tokens[TokenFont] = c
	}
	return tokens
}

// DefaultManifest is the built-in light theme with a dark variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenBackground: "#ffffff",
			TokenFont:       "#1f2933",
			TokenAccent:     "#2563eb",
			TokenError:      "#b91c1c",
			TokenBorder:     "#d2d6dc",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files:  map[string]string{"stylesheet": StylesheetName},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					TokenBackground: "#111827",
					TokenFont:       "#f9fafb",
					TokenBorder:     "#374151",
				},
			},
		},
	}
}

// Selector resolves theme manifests by name and variant. It satisfies
// theme.ThemeSelector so it can be shared with other go-theme consumers.
type Selector struct {
	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
	provider  theme.ThemeProvider
	fallback  string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// NewSelector registers manifests with a go-theme registry and indexes them
// for selection. Without manifests DefaultManifest is used.
func NewSelector(manifests ...*theme.Manifest) (*Selector, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultManifest()}
	}

	registry := theme.NewRegistry()
	s := &Selector{
		manifests: make(map[string]*theme.Manifest, len(manifests)),
		provider:  registry,
	}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			return nil, fmt.Errorf("html: theme manifest name is required")
		}
		if _, exists := s.manifests[manifest.Name]; exists {
			return nil, fmt.Errorf("html: theme %q already registered", manifest.Name)
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("html: register theme %q: %w", manifest.Name, err)
		}
		s.manifests[manifest.Name] = manifest
		if s.fallback == "" {
			s.fallback = manifest.Name
		}
	}
	return s, nil
}

// Provider exposes the underlying go-theme registry.
func (s *Selector) Provider() theme.ThemeProvider {
	return s.provider
}

// Themes lists the registered theme names.
func (s *Selector) Themes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the named theme, or the first registered one for an empty
// name. Unknown themes and variants are errors.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(name) == "" {
		name = s.fallback
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("html: unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("html: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ResolveTheme selects a theme through selector and flattens it, plus the
// palette overrides, into a renderer config.
func ResolveTheme(selector theme.ThemeSelector, name, variant string, palette Palette) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, fmt.Errorf("html: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return RendererConfig(selection, palette), nil
}

// RendererConfig merges base tokens, variant tokens and palette colours (in
// that order of precedence, last wins) and derives one CSS custom property
// per token.
func RendererConfig(selection *theme.Selection, palette Palette) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: map[string]string{},
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}

	assets := map[string]string{}
	prefix := ""
	if manifest := selection.Manifest; manifest != nil {
		merge(cfg.Tokens, manifest.Tokens)
		merge(cfg.Partials, manifest.Templates)
		merge(assets, manifest.Assets.Files)
		prefix = manifest.Assets.Prefix
		if variant, ok := manifest.Variants[selection.Variant]; ok {
			merge(cfg.Tokens, variant.Tokens)
			merge(cfg.Partials, variant.Templates)
			merge(assets, variant.Assets.Files)
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
		}
	}
	merge(cfg.Tokens, palette.Tokens())

	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := assets[key]
		if !ok {
			return ""
		}
		if prefix == "" || strings.Contains(file, "://") {
			return file
		}
		return path.Join(prefix, file)
	}
	return cfg
}

func merge(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}
