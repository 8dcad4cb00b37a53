package cellmap

import (
	"fmt"
	"strings"
)

// DefaultSheetID is used when a template does not name its sheet.
const DefaultSheetID = "sheet1"

// Footer is a template variant. Each footer can carry its own mapping.
type Footer struct {
	Name   string `json:"name" yaml:"name"`
	Index  int    `json:"index" yaml:"index"`
	Active bool   `json:"isActive" yaml:"isActive"`
}

// Template is an invoice layout: the sheet it lives on, its footers and one
// cell mapping per footer index.
type Template struct {
	ID            int
	Name          string
	SheetID       string
	Footers       []Footer
	LogoCell      string
	SignatureCell string
	Mappings      map[int]Mapping
}

// ActiveFooter returns the first footer flagged active, falling back to the
// first declared footer.
func (t Template) ActiveFooter() (Footer, bool) {
	for _, footer := range t.Footers {
		if footer.Active {
			return footer, true
		}
	}
	if len(t.Footers) > 0 {
		return t.Footers[0], true
	}
	return Footer{}, false
}

// Footer returns the footer with the supplied index.
func (t Template) Footer(index int) (Footer, bool) {
	for _, footer := range t.Footers {
		if footer.Index == index {
			return footer, true
		}
	}
	return Footer{}, false
}

// Mapping returns the mapping registered for footer. Unknown footers yield an
// empty mapping.
func (t Template) Mapping(footer int) Mapping {
	if t.Mappings == nil {
		return Mapping{}
	}
	return t.Mappings[footer]
}

// Validate checks the invariants the loader cannot enforce on its own.
func (t Template) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: id must be positive (got %d)", ErrInvalidTemplate, t.ID)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template %d has no name", ErrInvalidTemplate, t.ID)
	}

	seen := make(map[int]struct{}, len(t.Footers))
	for _, footer := range t.Footers {
		if _, exists := seen[footer.Index]; exists {
			return fmt.Errorf("%w: template %d declares footer %d twice", ErrInvalidTemplate, t.ID, footer.Index)
		}
		seen[footer.Index] = struct{}{}
	}
	for index := range t.Mappings {
		if _, ok := seen[index]; !ok {
			return fmt.Errorf("%w: template %d maps unknown footer %d", ErrInvalidTemplate, t.ID, index)
		}
	}

	for _, cell := range []string{t.LogoCell, t.SignatureCell} {
		if cell == "" {
			continue
		}
		if !IsCell(cell) {
			return fmt.Errorf("%w: template %d: %q is not a cell coordinate", ErrInvalidTemplate, t.ID, cell)
		}
	}
	return nil
}

// withDefaults fills the sheet id, a footer named after the template and the
// default mapping for templates that declare none.
func (t Template) withDefaults() Template {
	if t.SheetID == "" {
		t.SheetID = DefaultSheetID
	}
	if t.LogoCell != "" {
		t.LogoCell = strings.ToUpper(t.LogoCell)
	}
	if t.SignatureCell != "" {
		t.SignatureCell = strings.ToUpper(t.SignatureCell)
	}
	if len(t.Footers) == 0 {
		t.Footers = []Footer{{Name: t.Name, Index: 1, Active: true}}
	}
	if len(t.Mappings) == 0 {
		t.Mappings = make(map[int]Mapping, len(t.Footers))
		for _, footer := range t.Footers {
			t.Mappings[footer.Index] = DefaultMapping()
		}
	}
	return t
}
