package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers use to customise
// their output without touching the form itself.
type RenderOptions struct {
	// Title replaces the template name as the form heading.
	Title string
	// Action is the URL the rendered form posts to. Empty renders a form
	// without a submit target.
	Action string
	// Hidden inputs emitted before the first section, keyed by name.
	Hidden map[string]string
	// Errors surfaces validation feedback keyed by field path (see FieldPath
	// and ItemPath) plus form-level messages.
	Errors ErrorMapping
	// Theme carries the resolved palette. Nil falls back to the renderer's
	// built-in colours.
	Theme *theme.RendererConfig
}
