// Package sheet is the boundary between form data and a spreadsheet engine.
//
// Engines are handed in explicitly; nothing here looks up a global workbook.
// See the socialcalc and xlsx subpackages for implementations.
package sheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-invoiceform/pkg/form"
)

// ErrNoSheet is returned when an operation needs a sheet handle and none was
// configured.
var ErrNoSheet = errors.New("sheet: no spreadsheet engine configured")

// Sheet writes, erases and reads scalar cell values on a named sheet.
type Sheet interface {
	SetCells(ctx context.Context, sheetID string, cells form.CellMap) error
	EraseCells(ctx context.Context, sheetID string, coords []string) error
	CellValues(ctx context.Context, sheetID string, coords []string) (form.CellMap, error)
}

// Workbook is a Sheet whose whole content can be serialised and restored.
type Workbook interface {
	Sheet
	Snapshot(ctx context.Context) (string, error)
	Restore(ctx context.Context, content string) error
}

// Apply converts data and writes the resulting cells to sheetID.
func Apply(ctx context.Context, s Sheet, sheetID string, data form.Data, sections []form.Section) (form.CellMap, error) {
	if s == nil {
		return nil, ErrNoSheet
	}
	cells := form.ToCells(data, sections)
	if len(cells) == 0 {
		return cells, nil
	}
	if err := s.SetCells(ctx, sheetID, cells); err != nil {
		return nil, fmt.Errorf("sheet: apply %d cells to %s: %w", len(cells), sheetID, err)
	}
	return cells, nil
}

// Clear erases every cell data would write and returns freshly initialised
// form data.
func Clear(ctx context.Context, s Sheet, sheetID string, data form.Data, sections []form.Section) (form.Data, error) {
	if s == nil {
		return nil, ErrNoSheet
	}
	coords := form.ToCells(data, sections).Coordinates()
	if len(coords) > 0 {
		if err := s.EraseCells(ctx, sheetID, coords); err != nil {
			return nil, fmt.Errorf("sheet: clear %s: %w", sheetID, err)
		}
	}
	return form.Initialize(sections), nil
}

// Read loads the values of every cell the sections are bound to.
func Read(ctx context.Context, s Sheet, sheetID string, sections []form.Section) (form.Data, error) {
	if s == nil {
		return nil, ErrNoSheet
	}
	cells, err := s.CellValues(ctx, sheetID, form.BoundCells(sections))
	if err != nil {
		return nil, fmt.Errorf("sheet: read %s: %w", sheetID, err)
	}
	return form.FromCells(cells, sections), nil
}
