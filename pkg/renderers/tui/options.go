package tui

import "github.com/goliatone/go-invoiceform/pkg/form"

// OutputFormat controls how collected values are serialized by Render.
type OutputFormat string

const (
	// OutputFormatJSON emits the form data keyed by section title.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatCells emits the cell writes the data converts to.
	OutputFormatCells OutputFormat = "cells"
	// OutputFormatPrettyText emits a human-friendly summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional message prefixes.
type Theme struct {
	SectionPrefix string
	ErrorPrefix   string
}

// Option configures a Filler and the Renderer built on it.
type Option func(*config)

type config struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	rules        []form.Rule
}

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutputFormat selects the Render output format.
func WithOutputFormat(format OutputFormat) Option {
	return func(c *config) {
		if format != "" {
			c.outputFormat = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *config) {
		c.theme = theme
	}
}

// WithRules replaces the validation rules prompts check answers against.
// Default: form.DefaultRules().
func WithRules(rules ...form.Rule) Option {
	return func(c *config) {
		c.rules = rules
	}
}
