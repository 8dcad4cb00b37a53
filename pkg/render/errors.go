package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/form"
)

// ErrorMapping splits validation feedback into field-level and form-level
// messages. Field keys follow FieldPath and ItemPath.
type ErrorMapping struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

// For returns the messages recorded for path.
func (m ErrorMapping) For(path string) []string {
	return m.Fields[path]
}

// Empty reports whether the mapping carries no messages.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// Merge returns m with the messages of other appended. Duplicate messages for
// the same path are dropped.
func (m ErrorMapping) Merge(other ErrorMapping) ErrorMapping {
	if other.Empty() {
		return m
	}
	out := ErrorMapping{
		Fields: make(map[string][]string, len(m.Fields)+len(other.Fields)),
		Form:   MergeFormErrors(m.Form, other.Form...),
	}
	for path, messages := range m.Fields {
		out.Fields[path] = normalizeMessages(messages)
	}
	for path, messages := range other.Fields {
		out.Fields[path] = normalizeMessages(append(out.Fields[path], messages...))
	}
	if len(out.Fields) == 0 {
		out.Fields = nil
	}
	return out
}

// FieldPath identifies a field of a flat section.
func FieldPath(section, label string) string {
	return section + "." + label
}

// ItemPath identifies one column of an item row. Rows are 1-based.
func ItemPath(section string, row int, field string) string {
	return fmt.Sprintf("%s[%d].%s", section, row, field)
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapIssues attaches validation issues to the fields of sections. Issues that
// do not name a known field become form-level messages.
func MapIssues(sections []form.Section, issues []form.Issue) ErrorMapping {
	payload := make(map[string][]string, len(issues))
	var order []string
	for _, issue := range issues {
		path := FieldPath(issue.Section, issue.Field)
		if issue.Item > 0 {
			path = ItemPath(issue.Section, issue.Item, issue.Field)
		}
		if _, seen := payload[path]; !seen {
			order = append(order, path)
		}
		payload[path] = append(payload[path], issue.Message)
	}
	return mapPayload(sections, payload, order)
}

// MapErrorPayload normalises client supplied error payloads into field paths.
// Keys may be field paths ("Bill To.Email", "Items[2].Description") or JSON
// pointers ("/Bill To/Email", "/Items/1/Description" with 0-based rows).
// Unknown keys are treated as form-level errors so messages are not lost.
func MapErrorPayload(sections []form.Section, payload map[string][]string) ErrorMapping {
	order := make([]string, 0, len(payload))
	for key := range payload {
		order = append(order, key)
	}
	return mapPayload(sections, payload, order)
}

func mapPayload(sections []form.Section, payload map[string][]string, order []string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	known := knownPaths(sections)

	for _, raw := range order {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		if isFormLevelKey(raw) {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		path, ok := known[strings.ToLower(canonicalPath(raw))]
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[path] = normalizeMessages(append(mapping.Fields[path], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// knownPaths indexes every addressable field by its lower-cased path.
func knownPaths(sections []form.Section) map[string]string {
	paths := make(map[string]string)
	for _, section := range sections {
		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for row := 1; row <= section.Rows(); row++ {
				for _, col := range section.Items.Content {
					path := ItemPath(section.Title, row, col.Field)
					paths[strings.ToLower(path)] = path
				}
			}
			continue
		}
		for _, field := range section.Fields {
			path := FieldPath(section.Title, field.Label)
			paths[strings.ToLower(path)] = path
		}
	}
	return paths
}

func canonicalPath(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "#")
	clean = strings.TrimPrefix(clean, "$.")
	if !strings.HasPrefix(clean, "/") {
		return clean
	}

	segments := strings.Split(strings.Trim(clean, "/"), "/")
	for i, segment := range segments {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segments[i] = strings.ReplaceAll(segment, "~0", "~")
	}
	if len(segments) == 3 {
		if index, err := strconv.Atoi(segments[1]); err == nil && index >= 0 {
			return ItemPath(segments[0], index+1, segments[2])
		}
	}
	if len(segments) == 2 {
		return FieldPath(segments[0], segments[1])
	}
	return strings.Join(segments, ".")
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
