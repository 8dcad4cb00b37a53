package form

import "strings"

// FieldType is the input type a form field is rendered and validated as.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDecimal  FieldType = "decimal"
	FieldTypeTextarea FieldType = "textarea"
	// FieldTypeDate is only produced by declared heading datatypes.
	FieldTypeDate FieldType = "date"
)

var classifierRules = []struct {
	fieldType FieldType
	needles   []string
}{
	{FieldTypeEmail, []string{"email"}},
	{FieldTypeNumber, []string{"number", "#"}},
	{FieldTypeDecimal, []string{"rate", "amount", "price", "tax", "hours", "qty", "quantity"}},
	{FieldTypeTextarea, []string{"notes", "description"}},
}

// Classify infers a field type from a label. Matching is a case-insensitive
// substring search and the first matching rule wins, so "Email Number" is an
// email field and "Tax Number" is a number field.
func Classify(label string) FieldType {
	lower := strings.ToLower(label)
	for _, rule := range classifierRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.fieldType
			}
		}
	}
	return FieldTypeText
}
