// Package xlsx implements sheet.Workbook on top of an excelize workbook.
package xlsx

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/sheet"
)

// Option customises a Workbook.
type Option func(*Workbook)

// WithNumericValues stores values that parse as numbers as numeric cells.
func WithNumericValues() Option {
	return func(w *Workbook) {
		w.numeric = true
	}
}

// Workbook is a sheet.Workbook backed by an in-memory xlsx file. Sheet ids are
// matched against sheet names case-insensitively and missing sheets are
// created on first write.
type Workbook struct {
	mu      sync.Mutex
	file    *excelize.File
	numeric bool
}

var _ sheet.Workbook = (*Workbook)(nil)

// New returns a workbook holding a single empty sheet.
func New(options ...Option) *Workbook {
	return newWorkbook(excelize.NewFile(), options)
}

// Open reads the xlsx file at path.
func Open(path string, options ...Option) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", path, err)
	}
	return newWorkbook(file, options), nil
}

// OpenReader reads an xlsx document from r.
func OpenReader(r io.Reader, options ...Option) (*Workbook, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read workbook: %w", err)
	}
	return newWorkbook(file, options), nil
}

func newWorkbook(file *excelize.File, options []Option) *Workbook {
	w := &Workbook{file: file}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// SetCells writes cells to sheetID.
func (w *Workbook) SetCells(ctx context.Context, sheetID string, cells form.CellMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name, err := w.ensureSheet(sheetID)
	if err != nil {
		return err
	}
	for _, coord := range cells.Coordinates() {
		if err := w.setCell(name, coord, cells[coord]); err != nil {
			return fmt.Errorf("xlsx: set %s!%s: %w", name, coord, err)
		}
	}
	return nil
}

// EraseCells clears coords on sheetID. Erasing on a missing sheet is a no-op.
func (w *Workbook) EraseCells(ctx context.Context, sheetID string, coords []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name, ok := w.sheetName(sheetID)
	if !ok {
		return nil
	}
	for _, coord := range coords {
		if err := w.file.SetCellValue(name, coord, nil); err != nil {
			return fmt.Errorf("xlsx: erase %s!%s: %w", name, coord, err)
		}
	}
	return nil
}

// CellValues reads the formatted value of coords.
func (w *Workbook) CellValues(ctx context.Context, sheetID string, coords []string) (form.CellMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(form.CellMap, len(coords))
	name, ok := w.sheetName(sheetID)
	for _, coord := range coords {
		if !ok {
			out[coord] = ""
			continue
		}
		value, err := w.file.GetCellValue(name, coord)
		if err != nil {
			return nil, fmt.Errorf("xlsx: read %s!%s: %w", name, coord, err)
		}
		out[coord] = value
	}
	return out, nil
}

// Snapshot returns the workbook as base64-encoded xlsx bytes.
func (w *Workbook) Snapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("xlsx: encode workbook: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Restore replaces the workbook with a Snapshot. An empty string resets it to
// a blank workbook.
func (w *Workbook) Restore(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var next *excelize.File
	if strings.TrimSpace(content) == "" {
		next = excelize.NewFile()
	} else {
		raw, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return fmt.Errorf("xlsx: decode snapshot: %w", err)
		}
		next, err = excelize.OpenReader(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("xlsx: read snapshot: %w", err)
		}
	}

	w.mu.Lock()
	previous := w.file
	w.file = next
	w.mu.Unlock()
	return previous.Close()
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

// Sheets lists the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) setCell(name, coord, value string) error {
	if value == "" {
		return w.file.SetCellValue(name, coord, nil)
	}
	if w.numeric {
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return w.file.SetCellFloat(name, coord, n, -1, 64)
		}
	}
	return w.file.SetCellStr(name, coord, value)
}

func (w *Workbook) sheetName(sheetID string) (string, bool) {
	for _, name := range w.file.GetSheetList() {
		if strings.EqualFold(name, sheetID) {
			return name, true
		}
	}
	return "", false
}

func (w *Workbook) ensureSheet(sheetID string) (string, error) {
	if name, ok := w.sheetName(sheetID); ok {
		return name, nil
	}
	if _, err := w.file.NewSheet(sheetID); err != nil {
		return "", fmt.Errorf("xlsx: create sheet %s: %w", sheetID, err)
	}
	return sheetID, nil
}
