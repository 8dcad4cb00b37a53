package cellmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// MarshalJSON writes the mapping as an object whose keys keep entry order.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeEntries(&buf, m.Entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the mapping strictly, preserving key order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	decoded, err := ParseMapping(data)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// MarshalJSON writes the items block in its schema shape.
func (it Items) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeItems(&buf, it); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type templateJSON struct {
	ID            int                        `json:"id"`
	Name          string                     `json:"name"`
	Sheet         string                     `json:"sheet"`
	Footers       []Footer                   `json:"footers"`
	LogoCell      string                     `json:"logoCell,omitempty"`
	SignatureCell string                     `json:"signatureCell,omitempty"`
	CellMappings  map[string]json.RawMessage `json:"cellMappings"`
}

// MarshalJSON writes the template in the same shape template files use.
func (t Template) MarshalJSON() ([]byte, error) {
	out := templateJSON{
		ID:            t.ID,
		Name:          t.Name,
		Sheet:         t.SheetID,
		Footers:       t.Footers,
		LogoCell:      t.LogoCell,
		SignatureCell: t.SignatureCell,
		CellMappings:  make(map[string]json.RawMessage, len(t.Mappings)),
	}
	if out.Footers == nil {
		out.Footers = []Footer{}
	}

	indexes := make([]int, 0, len(t.Mappings))
	for index := range t.Mappings {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		raw, err := t.Mappings[index].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("cellmap: marshal template %d footer %d: %w", t.ID, index, err)
		}
		out.CellMappings[strconv.Itoa(index)] = raw
	}
	return json.Marshal(out)
}

func writeEntries(buf *bytes.Buffer, entries []Entry) error {
	buf.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, entry.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, entry.Value); err != nil {
			return fmt.Errorf("cellmap: marshal %q: %w", entry.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, value Value) error {
	switch v := value.(type) {
	case Leaf:
		return writeString(buf, v.Cell)
	case Heading:
		raw, err := json.Marshal(struct {
			Heading  string   `json:"heading"`
			Datatype Datatype `json:"datatype"`
		}{v.Heading, v.Datatype})
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	case Group:
		return writeEntries(buf, v.Entries)
	case Items:
		return writeItems(buf, v)
	default:
		return fmt.Errorf("unsupported value %T", value)
	}
}

func writeItems(buf *bytes.Buffer, it Items) error {
	buf.WriteString(`{"name":`)
	if err := writeString(buf, it.Name); err != nil {
		return err
	}
	rng, err := json.Marshal(it.Range)
	if err != nil {
		return err
	}
	buf.WriteString(`,"range":`)
	buf.Write(rng)
	buf.WriteString(`,"content":{`)
	for i, col := range it.Content {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, col.Field); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeString(buf, col.Letters); err != nil {
			return err
		}
	}
	buf.WriteString("}}")
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
