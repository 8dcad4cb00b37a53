package form

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Values holds the current values of one section: label → value for flat
// sections, one field → value map per row for items sections.
type Values struct {
	IsItems bool
	Fields  map[string]string
	Items   []map[string]string
}

// Data maps section titles to their values.
type Data map[string]*Values

// Initialize returns all-empty values for sections. Items sections get one row
// per index in their range.
func Initialize(sections []Section) Data {
	data := make(Data, len(sections))
	for _, section := range sections {
		if section.IsItems && section.Items != nil {
			rows := make([]map[string]string, section.Rows())
			for i := range rows {
				row := make(map[string]string, len(section.Items.Content))
				for _, col := range section.Items.Content {
					row[col.Field] = ""
				}
				rows[i] = row
			}
			data[section.Title] = &Values{IsItems: true, Items: rows}
			continue
		}

		fields := make(map[string]string, len(section.Fields))
		for _, field := range section.Fields {
			fields[field.Label] = ""
		}
		data[section.Title] = &Values{Fields: fields}
	}
	return data
}

// Normalize returns fresh data for sections populated with every value of src
// that still has a home. Values for unknown sections, labels or rows are
// dropped.
func Normalize(src Data, sections []Section) Data {
	out := Initialize(sections)
	for title, values := range out {
		source, ok := src[title]
		if !ok || source == nil || source.IsItems != values.IsItems {
			continue
		}
		if values.IsItems {
			for i := range values.Items {
				if i >= len(source.Items) {
					break
				}
				for field := range values.Items[i] {
					if v, ok := source.Items[i][field]; ok {
						values.Items[i][field] = v
					}
				}
			}
			continue
		}
		for label := range values.Fields {
			if v, ok := source.Fields[label]; ok {
				values.Fields[label] = v
			}
		}
	}
	return out
}

// Get returns the value of a flat field.
func (d Data) Get(section, label string) (string, bool) {
	values, ok := d[section]
	if !ok || values == nil || values.IsItems {
		return "", false
	}
	v, ok := values.Fields[label]
	return v, ok
}

// Item returns the value of an item field. index is zero-based.
func (d Data) Item(section string, index int, field string) (string, bool) {
	values, ok := d[section]
	if !ok || values == nil || !values.IsItems || index < 0 || index >= len(values.Items) {
		return "", false
	}
	v, ok := values.Items[index][field]
	return v, ok
}

// Set assigns a flat field value.
func (d Data) Set(section, label, value string) error {
	values, err := d.section(section)
	if err != nil {
		return err
	}
	if values.IsItems {
		return fmt.Errorf("%w: %q is an items section", ErrSectionKind, section)
	}
	if _, ok := values.Fields[label]; !ok {
		return fmt.Errorf("%w: %q in section %q", ErrUnknownField, label, section)
	}
	values.Fields[label] = value
	return nil
}

// SetItem assigns one field of an item row. index is zero-based.
func (d Data) SetItem(section string, index int, field, value string) error {
	values, err := d.section(section)
	if err != nil {
		return err
	}
	if !values.IsItems {
		return fmt.Errorf("%w: %q is not an items section", ErrSectionKind, section)
	}
	if index < 0 || index >= len(values.Items) {
		return fmt.Errorf("%w: %d (section %q has %d rows)", ErrItemIndex, index, section, len(values.Items))
	}
	row := values.Items[index]
	if _, ok := row[field]; !ok {
		return fmt.Errorf("%w: %q in section %q", ErrUnknownField, field, section)
	}
	row[field] = value
	return nil
}

func (d Data) section(title string) (*Values, error) {
	values, ok := d[title]
	if !ok || values == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, title)
	}
	return values, nil
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for title, values := range d {
		if values == nil {
			out[title] = nil
			continue
		}
		out[title] = values.clone()
	}
	return out
}

func (v *Values) clone() *Values {
	out := &Values{IsItems: v.IsItems}
	if v.Fields != nil {
		out.Fields = make(map[string]string, len(v.Fields))
		for k, val := range v.Fields {
			out.Fields[k] = val
		}
	}
	if v.Items != nil {
		out.Items = make([]map[string]string, len(v.Items))
		for i, row := range v.Items {
			copied := make(map[string]string, len(row))
			for k, val := range row {
				copied[k] = val
			}
			out.Items[i] = copied
		}
	}
	return out
}

// MarshalJSON writes flat sections as objects and items sections as arrays.
func (v Values) MarshalJSON() ([]byte, error) {
	if v.IsItems {
		items := v.Items
		if items == nil {
			items = []map[string]string{}
		}
		return json.Marshal(items)
	}
	fields := v.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON accepts the shapes produced by MarshalJSON.
func (v *Values) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []map[string]string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("form: decode items: %w", err)
		}
		*v = Values{IsItems: true, Items: items}
		return nil
	}

	var fields map[string]string
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("form: decode fields: %w", err)
	}
	*v = Values{Fields: fields}
	return nil
}
