// Package template defines the seam between renderers and a concrete template
// engine. The gotemplate subpackage provides the default implementation.
package template
