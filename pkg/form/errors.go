package form

import "errors"

var (
	// ErrUnknownSection is returned when a section title is not part of the form.
	ErrUnknownSection = errors.New("form: unknown section")
	// ErrUnknownField is returned for labels or item fields the section does not
	// declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrItemIndex is returned for item rows outside the section's range.
	ErrItemIndex = errors.New("form: item index out of range")
	// ErrSectionKind is returned when a flat operation targets an items section
	// or the other way round.
	ErrSectionKind = errors.New("form: wrong section kind")
)
