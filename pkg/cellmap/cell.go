package cellmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NormalizeCell upper-cases and validates an A1-style coordinate.
func NormalizeCell(raw string) (string, error) {
	cell := strings.ToUpper(strings.TrimSpace(raw))
	if cell == "" {
		return "", fmt.Errorf("%w: empty coordinate", ErrInvalidCell)
	}
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCell, raw)
	}
	return cell, nil
}

// IsCell reports whether raw parses as an A1-style coordinate.
func IsCell(raw string) bool {
	_, err := NormalizeCell(raw)
	return err == nil
}

// NormalizeColumn upper-cases and validates column letters ("c" -> "C").
func NormalizeColumn(raw string) (string, error) {
	col := strings.ToUpper(strings.TrimSpace(raw))
	if col == "" {
		return "", fmt.Errorf("%w: empty column", ErrInvalidCell)
	}
	if _, err := excelize.ColumnNameToNumber(col); err != nil {
		return "", fmt.Errorf("%w: column %q", ErrInvalidCell, raw)
	}
	return col, nil
}

// CellName joins column letters and a row number.
func CellName(column string, row int) string {
	return column + strconv.Itoa(row)
}

// CellPosition returns the 1-based column and row numbers of cell.
func CellPosition(cell string) (col, row int, err error) {
	return excelize.CellNameToCoordinates(strings.ToUpper(strings.TrimSpace(cell)))
}

// CoordinatesToCell is the inverse of CellPosition.
func CoordinatesToCell(col, row int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCell, err)
	}
	return name, nil
}
