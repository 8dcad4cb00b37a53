package form

import (
	"fmt"
	"regexp"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of Validate. Valid is true exactly when Errors is
// empty. Issues carries the same messages with the field they belong to.
type Result struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
	Issues []Issue  `json:"issues,omitempty"`
}

// Issue locates one rejected value.
type Issue struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Item    int    `json:"item,omitempty"`
	Message string `json:"message"`
}

// FieldContext describes one value handed to a Rule.
type FieldContext struct {
	Section string
	// Label is the field label for flat sections and the field name for item
	// columns.
	Label string
	Type  FieldType
	Value string
	// Item is the 1-based row number for item columns and zero otherwise.
	Item int
}

// Rule inspects a field and returns a message when the value is rejected.
type Rule func(FieldContext) string

// EmailRule rejects non-empty email fields that do not look like an address.
func EmailRule(field FieldContext) string {
	if field.Type != FieldTypeEmail || field.Value == "" || IsValidEmail(field.Value) {
		return ""
	}
	if field.Item > 0 {
		return fmt.Sprintf("Invalid email format in %s item %d: %s", field.Section, field.Item, field.Label)
	}
	return fmt.Sprintf("Invalid email format in %s: %s", field.Section, field.Label)
}

// IsValidEmail reports whether value has the local@domain.tld shape.
func IsValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// DefaultRules returns the rules Validate applies when none are supplied.
func DefaultRules() []Rule {
	return []Rule{EmailRule}
}

// Validate runs rules over every field of data in section order. Without
// rules only the email check runs. Item columns are typed by classifying the
// field name.
func Validate(data Data, sections []Section, rules ...Rule) Result {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	errs := []string{}
	var issues []Issue
	check := func(field FieldContext) {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if msg := rule(field); msg != "" {
				errs = append(errs, msg)
				issues = append(issues, Issue{
					Section: field.Section,
					Field:   field.Label,
					Item:    field.Item,
					Message: msg,
				})
			}
		}
	}

	for _, section := range sections {
		values := data[section.Title]
		if values == nil {
			continue
		}

		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for i, row := range values.Items {
				for _, col := range section.Items.Content {
					check(FieldContext{
						Section: section.Title,
						Label:   col.Field,
						Type:    Classify(col.Field),
						Value:   row[col.Field],
						Item:    i + 1,
					})
				}
			}
			continue
		}

		for _, field := range section.Fields {
			check(FieldContext{
				Section: section.Title,
				Label:   field.Label,
				Type:    field.Type,
				Value:   values.Fields[field.Label],
			})
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs, Issues: issues}
}
