package form

import (
	"sort"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
)

// CellMap maps cell coordinates to the scalar values written there.
type CellMap map[string]string

// Coordinates returns the keys in sheet order: by row, then by column.
// Entries that are not coordinates sort last, lexically.
func (c CellMap) Coordinates() []string {
	type position struct {
		cell     string
		col, row int
		ok       bool
	}
	positions := make([]position, 0, len(c))
	for cell := range c {
		col, row, err := cellmap.CellPosition(cell)
		positions = append(positions, position{cell: cell, col: col, row: row, ok: err == nil})
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return a.cell < b.cell
		}
		if a.row != b.row {
			return a.row < b.row
		}
		if a.col != b.col {
			return a.col < b.col
		}
		return a.cell < b.cell
	})

	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.cell
	}
	return out
}

// ToCells converts form data into cell writes. Flat fields are emitted only
// when non-empty. Every item row present in data (up to the end of the range)
// emits every content column, empty or not, so stale item cells get
// overwritten.
func ToCells(data Data, sections []Section) CellMap {
	cells := make(CellMap)
	for _, section := range sections {
		values := data[section.Title]
		if values == nil {
			continue
		}

		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for i, row := range values.Items {
				rowNumber := section.Items.Range.Start + i
				if rowNumber > section.Items.Range.End {
					break
				}
				for _, col := range section.Items.Content {
					cells[cellmap.CellName(col.Letters, rowNumber)] = row[col.Field]
				}
			}
			continue
		}

		for _, field := range section.Fields {
			value := values.Fields[field.Label]
			if value == "" || field.Cell == "" {
				continue
			}
			cells[field.Cell] = value
		}
	}
	return cells
}

// BoundCells returns every cell the sections can write to, in sheet order.
func BoundCells(sections []Section) []string {
	cells := make(CellMap)
	for _, section := range sections {
		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for row := section.Items.Range.Start; row <= section.Items.Range.End; row++ {
				for _, col := range section.Items.Content {
					cells[cellmap.CellName(col.Letters, row)] = ""
				}
			}
			continue
		}
		for _, field := range section.Fields {
			if field.Cell != "" {
				cells[field.Cell] = ""
			}
		}
	}
	return cells.Coordinates()
}

// FromCells builds form data from cell values read back from a sheet.
// Missing cells leave the field empty.
func FromCells(cells CellMap, sections []Section) Data {
	data := Initialize(sections)
	for _, section := range sections {
		values := data[section.Title]
		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for i, row := range values.Items {
				rowNumber := section.Items.Range.Start + i
				for _, col := range section.Items.Content {
					row[col.Field] = cells[cellmap.CellName(col.Letters, rowNumber)]
				}
			}
			continue
		}
		for _, field := range section.Fields {
			values.Fields[field.Label] = cells[field.Cell]
		}
	}
	return data
}
