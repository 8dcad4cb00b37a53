package editor

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	valuePolicyOnce sync.Once
	valuePolicy     *bluemonday.Policy
)

// SanitizeValue strips markup from a user-entered cell value. Entities typed
// by the user are kept literally: ampersands are escaped before sanitizing so
// that the single unescape afterwards only reverses what the policy escaped.
func SanitizeValue(raw string) string {
	if raw == "" || !strings.ContainsAny(raw, "<>") {
		return raw
	}
	escaped := strings.ReplaceAll(raw, "&", "&amp;")
	return html.UnescapeString(valueSanitizer().Sanitize(escaped))
}

func valueSanitizer() *bluemonday.Policy {
	valuePolicyOnce.Do(func() {
		valuePolicy = bluemonday.StrictPolicy()
	})
	return valuePolicy
}
