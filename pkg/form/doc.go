// Package form turns a cellmap.Mapping into editable form sections, keeps the
// values typed into them, validates those values and converts them back into
// cell writes.
//
// Everything here is pure: no I/O, no spreadsheet access. The sheet package
// applies the CellMap produced by ToCells to a spreadsheet engine.
package form
