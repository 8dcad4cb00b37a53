package socialcalc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
)

// Cell is one stored value. Kind is "t" for text and "n" for numbers.
type Cell struct {
	Kind  string `json:"type"`
	Value string `json:"value"`
}

type memoryContent struct {
	Sheets map[string]map[string]Cell `json:"sheets"`
}

// MemoryEngine is an Engine that keeps cell values in memory and serialises
// them as JSON. It understands "set <coord> text t <v>", "set <coord> value n
// <v>" and "erase <coord|range> formulas".
type MemoryEngine struct {
	mu      sync.RWMutex
	sheets  map[string]map[string]Cell
	history []Command
}

var _ Engine = (*MemoryEngine)(nil)

// NewMemoryEngine constructs an empty engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{sheets: make(map[string]map[string]Cell)}
}

// Execute applies every line of cmd. Either all lines apply or none do.
func (e *MemoryEngine) Execute(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cmd.Type != CommandType {
		return fmt.Errorf("%w: cmdtype %q", ErrUnsupportedCommand, cmd.Type)
	}

	type op struct {
		erase []string
		coord string
		cell  Cell
	}
	ops := make([]op, 0)
	for _, line := range cmd.Lines() {
		verb, rest, _ := strings.Cut(line, " ")
		switch verb {
		case "set":
			coord, cell, err := parseSet(rest)
			if err != nil {
				return fmt.Errorf("%w: %q: %v", ErrBadCommand, line, err)
			}
			ops = append(ops, op{coord: coord, cell: cell})
		case "erase":
			coords, err := parseErase(rest)
			if err != nil {
				return fmt.Errorf("%w: %q: %v", ErrBadCommand, line, err)
			}
			ops = append(ops, op{erase: coords})
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedCommand, verb)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cells := e.sheets[cmd.SheetID]
	if cells == nil {
		cells = make(map[string]Cell)
		e.sheets[cmd.SheetID] = cells
	}
	for _, o := range ops {
		if o.erase != nil {
			for _, coord := range o.erase {
				delete(cells, coord)
			}
			continue
		}
		cells[o.coord] = o.cell
	}
	e.history = append(e.history, cmd)
	return nil
}

// CellValue returns the stored value of coord.
func (e *MemoryEngine) CellValue(ctx context.Context, sheetID, coord string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	cell, ok := e.sheets[sheetID][strings.ToUpper(coord)]
	return cell.Value, ok, nil
}

// Cell returns the raw stored cell, including its kind.
func (e *MemoryEngine) Cell(sheetID, coord string) (Cell, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cell, ok := e.sheets[sheetID][strings.ToUpper(coord)]
	return cell, ok
}

// Content serialises every sheet as JSON.
func (e *MemoryEngine) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	raw, err := json.Marshal(memoryContent{Sheets: e.sheets})
	if err != nil {
		return "", fmt.Errorf("socialcalc: encode content: %w", err)
	}
	return string(raw), nil
}

// Load replaces all sheets with content produced by Content. An empty string
// resets the engine.
func (e *MemoryEngine) Load(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sheets := make(map[string]map[string]Cell)
	if strings.TrimSpace(content) != "" {
		var decoded memoryContent
		if err := json.Unmarshal([]byte(content), &decoded); err != nil {
			return fmt.Errorf("socialcalc: decode content: %w", err)
		}
		for id, cells := range decoded.Sheets {
			if cells == nil {
				cells = make(map[string]Cell)
			}
			sheets[id] = cells
		}
	}

	e.mu.Lock()
	e.sheets = sheets
	e.mu.Unlock()
	return nil
}

// History returns the commands executed so far.
func (e *MemoryEngine) History() []Command {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Command(nil), e.history...)
}

func parseSet(rest string) (string, Cell, error) {
	parts := strings.SplitN(rest, " ", 4)
	if len(parts) < 3 {
		return "", Cell{}, fmt.Errorf("expected set <coord> <text|value> <t|n> <value>")
	}
	coord, err := cellmap.NormalizeCell(parts[0])
	if err != nil {
		return "", Cell{}, err
	}
	value := ""
	if len(parts) == 4 {
		value = parts[3]
	}

	switch parts[1] + " " + parts[2] {
	case "text t":
		return coord, Cell{Kind: "t", Value: DecodeValue(value)}, nil
	case "value n":
		return coord, Cell{Kind: "n", Value: strings.TrimSpace(value)}, nil
	default:
		return "", Cell{}, fmt.Errorf("unsupported set form %q", parts[1]+" "+parts[2])
	}
}

func parseErase(rest string) ([]string, error) {
	target, kind, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if kind != "" && kind != "formulas" && kind != "all" {
		return nil, fmt.Errorf("unsupported erase kind %q", kind)
	}

	from, to, isRange := strings.Cut(target, ":")
	if !isRange {
		coord, err := cellmap.NormalizeCell(from)
		if err != nil {
			return nil, err
		}
		return []string{coord}, nil
	}

	c1, r1, err := cellmap.CellPosition(from)
	if err != nil {
		return nil, err
	}
	c2, r2, err := cellmap.CellPosition(to)
	if err != nil {
		return nil, err
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}

	out := make([]string, 0, (c2-c1+1)*(r2-r1+1))
	for col := c1; col <= c2; col++ {
		for row := r1; row <= r2; row++ {
			name, err := cellmap.CoordinatesToCell(col, row)
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
	}
	return out, nil
}
