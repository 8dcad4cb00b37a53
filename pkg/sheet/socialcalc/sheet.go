package socialcalc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/sheet"
)

// Engine executes command batches and exposes cell values and the serialised
// workbook.
type Engine interface {
	Execute(ctx context.Context, cmd Command) error
	CellValue(ctx context.Context, sheetID, coord string) (string, bool, error)
	Content(ctx context.Context) (string, error)
	Load(ctx context.Context, content string) error
}

// Option customises a Sheet.
type Option func(*Sheet)

// WithNumericValues writes values that parse as numbers with "value n"
// instead of "text t", so engine formulas can sum them.
func WithNumericValues() Option {
	return func(s *Sheet) {
		s.numeric = true
	}
}

// Sheet adapts an Engine to sheet.Workbook.
type Sheet struct {
	engine  Engine
	numeric bool
}

var _ sheet.Workbook = (*Sheet)(nil)

// New wraps engine.
func New(engine Engine, options ...Option) *Sheet {
	s := &Sheet{engine: engine}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetCells writes cells as one command batch in sheet order.
func (s *Sheet) SetCells(ctx context.Context, sheetID string, cells form.CellMap) error {
	coords := cells.Coordinates()
	lines := make([]string, 0, len(coords))
	for _, coord := range coords {
		lines = append(lines, s.setLine(coord, cells[coord]))
	}
	return s.execute(ctx, sheetID, lines)
}

// EraseCells erases the content of coords.
func (s *Sheet) EraseCells(ctx context.Context, sheetID string, coords []string) error {
	lines := make([]string, 0, len(coords))
	for _, coord := range coords {
		lines = append(lines, erase(coord))
	}
	return s.execute(ctx, sheetID, lines)
}

// CellValues reads coords. Empty cells are returned as empty strings.
func (s *Sheet) CellValues(ctx context.Context, sheetID string, coords []string) (form.CellMap, error) {
	out := make(form.CellMap, len(coords))
	for _, coord := range coords {
		value, _, err := s.engine.CellValue(ctx, sheetID, coord)
		if err != nil {
			return nil, fmt.Errorf("socialcalc: read %s!%s: %w", sheetID, coord, err)
		}
		out[coord] = value
	}
	return out, nil
}

// Snapshot returns the serialised workbook.
func (s *Sheet) Snapshot(ctx context.Context) (string, error) {
	return s.engine.Content(ctx)
}

// Restore replaces the workbook with content.
func (s *Sheet) Restore(ctx context.Context, content string) error {
	return s.engine.Load(ctx, content)
}

// setLine erases instead of writing empty text.
func (s *Sheet) setLine(coord, value string) string {
	if value == "" {
		return erase(coord)
	}
	if s.numeric && isNumber(value) {
		return setNumber(coord, strings.TrimSpace(value))
	}
	return setText(coord, value)
}

func (s *Sheet) execute(ctx context.Context, sheetID string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	cmd := Command{
		Type:    CommandType,
		SheetID: sheetID,
		Script:  strings.Join(lines, "\n") + "\n",
	}
	if err := s.engine.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("socialcalc: execute on %s: %w", sheetID, err)
	}
	return nil
}

func isNumber(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	return err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
}
