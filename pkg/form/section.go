package form

import "github.com/goliatone/go-invoiceform/pkg/cellmap"

// Field is one editable input bound to a single cell.
type Field struct {
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Cell  string    `json:"cellMapping"`
}

// Section groups fields under a title. Items sections carry the repeating
// block configuration instead of fields.
type Section struct {
	Title   string         `json:"title"`
	IsItems bool           `json:"isItems,omitempty"`
	Fields  []Field        `json:"fields"`
	Items   *cellmap.Items `json:"itemsConfig,omitempty"`
}

// Rows returns the number of item rows an items section holds.
func (s Section) Rows() int {
	if !s.IsItems || s.Items == nil {
		return 0
	}
	return s.Items.Range.Rows()
}

// Field returns the field with the supplied label.
func (s Section) Field(label string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Label == label {
			return field, true
		}
	}
	return Field{}, false
}

// GenerateSections derives the ordered form sections of a mapping. An empty
// mapping yields no sections.
func GenerateSections(mapping cellmap.Mapping) []Section {
	sections := make([]Section, 0, len(mapping.Entries))
	for _, entry := range mapping.Entries {
		switch value := entry.Value.(type) {
		case cellmap.Items:
			items := value
			sections = append(sections, Section{
				Title:   items.Name,
				IsItems: true,
				Fields:  []Field{},
				Items:   &items,
			})
		case cellmap.Leaf:
			sections = append(sections, Section{
				Title:  entry.Key,
				Fields: []Field{{Label: entry.Key, Type: Classify(entry.Key), Cell: value.Cell}},
			})
		case cellmap.Heading:
			sections = append(sections, Section{
				Title:  value.Heading,
				Fields: []Field{headingField(value)},
			})
		case cellmap.Group:
			fields := flatten(value, "", nil)
			if len(fields) == 0 {
				continue
			}
			sections = append(sections, Section{Title: entry.Key, Fields: fields})
		}
	}
	return sections
}

// flatten walks a group depth first. Leaves under a nested group are prefixed
// with that group's key only, not the full path.
func flatten(group cellmap.Group, prefix string, fields []Field) []Field {
	for _, entry := range group.Entries {
		switch value := entry.Value.(type) {
		case cellmap.Leaf:
			label := entry.Key
			if prefix != "" {
				label = prefix + " " + entry.Key
			}
			fields = append(fields, Field{Label: label, Type: Classify(entry.Key), Cell: value.Cell})
		case cellmap.Heading:
			fields = append(fields, headingField(value))
		case cellmap.Group:
			fields = flatten(value, entry.Key, fields)
		}
	}
	return fields
}

func headingField(h cellmap.Heading) Field {
	return Field{Label: h.Heading, Type: FieldType(h.Datatype), Cell: h.Cell}
}

// SectionsForFooter generates the sections of one template footer.
func SectionsForFooter(tpl cellmap.Template, footer int) []Section {
	return GenerateSections(tpl.Mapping(footer))
}

// SectionsForActiveFooter generates the sections of the template's active
// footer and reports which footer was used.
func SectionsForActiveFooter(tpl cellmap.Template) ([]Section, cellmap.Footer) {
	footer, ok := tpl.ActiveFooter()
	if !ok {
		return []Section{}, cellmap.Footer{}
	}
	return SectionsForFooter(tpl, footer.Index), footer
}
