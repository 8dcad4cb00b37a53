// Package socialcalc drives a SocialCalc-style engine through "scmd" command
// batches such as
//
//	set C5 text t Jane
//	set F23 value n 12.5
//	erase C5 formulas
//
// MemoryEngine interprets that subset for tests and headless use.
package socialcalc

import (
	"errors"
	"strings"
)

// CommandType is the only command type this package emits.
const CommandType = "scmd"

var (
	// ErrBadCommand is returned for script lines MemoryEngine cannot parse.
	ErrBadCommand = errors.New("socialcalc: malformed command")
	// ErrUnsupportedCommand is returned for verbs outside the supported subset.
	ErrUnsupportedCommand = errors.New("socialcalc: unsupported command")
)

// Command is a workbook control command. SaveUndo stays false for batches
// written by Sheet: form writes are replayed from saved content, not undone.
type Command struct {
	Type     string `json:"cmdtype"`
	SheetID  string `json:"id"`
	Script   string `json:"cmdstr"`
	SaveUndo bool   `json:"saveundo"`
}

// Lines splits the script into its non-empty command lines.
func (c Command) Lines() []string {
	raw := strings.Split(c.Script, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

var (
	valueEncoder = strings.NewReplacer(`\`, `\b`, "\n", `\n`, ":", `\c`)
	valueDecoder = strings.NewReplacer(`\b`, `\`, `\n`, "\n", `\c`, ":")
)

// EncodeValue escapes a cell value so it fits on one command line.
func EncodeValue(value string) string {
	return valueEncoder.Replace(value)
}

// DecodeValue reverses EncodeValue.
func DecodeValue(value string) string {
	return valueDecoder.Replace(value)
}

func setText(coord, value string) string {
	return "set " + coord + " text t " + EncodeValue(value)
}

func setNumber(coord, value string) string {
	return "set " + coord + " value n " + value
}

func erase(coord string) string {
	return "erase " + coord + " formulas"
}
