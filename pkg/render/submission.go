package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/form"
)

// Hidden input names the preview form posts back so a handler can regenerate
// the sections it is validating.
const (
	TemplateField = "templateId"
	FooterField   = "billType"
)

// HiddenField is a hidden input emitted alongside the visible sections.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// IdentityFields returns the hidden inputs that identify the template and
// footer of f.
func IdentityFields(f Form) []HiddenField {
	return []HiddenField{
		{Name: TemplateField, Value: strconv.Itoa(f.Template.ID)},
		{Name: FooterField, Value: strconv.Itoa(f.Footer.Index)},
	}
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored and later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		if name = strings.TrimSpace(name); name != "" {
			result = append(result, HiddenField{Name: name, Value: value})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if len(result) == 0 {
		return nil
	}
	return result
}

// DecodeSubmission reads posted form values back into data for sections.
// Keys follow FieldPath and ItemPath, the names the preview inputs carry;
// anything else, the identity fields included, is ignored.
func DecodeSubmission(sections []form.Section, values map[string][]string) form.Data {
	data := form.Initialize(sections)
	first := func(key string) (string, bool) {
		posted, ok := values[key]
		if !ok || len(posted) == 0 {
			return "", false
		}
		return posted[0], true
	}

	for _, section := range sections {
		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for row := 1; row <= section.Rows(); row++ {
				for _, col := range section.Items.Content {
					if value, ok := first(ItemPath(section.Title, row, col.Field)); ok {
						_ = data.SetItem(section.Title, row-1, col.Field, value)
					}
				}
			}
			continue
		}
		for _, field := range section.Fields {
			if value, ok := first(FieldPath(section.Title, field.Label)); ok {
				_ = data.Set(section.Title, field.Label, value)
			}
		}
	}
	return data
}
