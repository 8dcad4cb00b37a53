package cellmap

import "errors"

var (
	// ErrInvalidCell is returned for coordinates or column letters that do not
	// parse.
	ErrInvalidCell = errors.New("cellmap: invalid cell reference")
	// ErrMalformedEntry marks a schema entry whose shape is not one of the
	// supported values (string leaf, heading, group, items).
	ErrMalformedEntry = errors.New("cellmap: malformed entry")
	// ErrDuplicateCell is returned when a coordinate appears twice within one
	// section.
	ErrDuplicateCell = errors.New("cellmap: duplicate cell in section")
	// ErrDuplicateSection is returned when two top-level entries resolve to the
	// same section title.
	ErrDuplicateSection = errors.New("cellmap: duplicate section title")
	// ErrInvalidRange is returned for item ranges with start < 1, start > end
	// or an end past the last worksheet row.
	ErrInvalidRange = errors.New("cellmap: invalid items range")
	// ErrInvalidTemplate is returned when a template fails validation.
	ErrInvalidTemplate = errors.New("cellmap: invalid template")
	// ErrDuplicateTemplate is returned when two templates share an id.
	ErrDuplicateTemplate = errors.New("cellmap: duplicate template")
)
