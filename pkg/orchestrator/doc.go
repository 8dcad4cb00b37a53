// Package orchestrator coordinates template lookup, section generation, data
// presets, validation and rendering into a single Generate call.
package orchestrator
