package storage

import (
	"fmt"
	"net/url"
	"strings"
)

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeContent percent-encodes workbook content the way browsers'
// encodeURIComponent does, so documents written by either side read back the
// same.
func EncodeContent(content string) string {
	return componentUnescaper.Replace(url.QueryEscape(content))
}

// DecodeContent reverses EncodeContent. A "+" is kept literally.
func DecodeContent(encoded string) (string, error) {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("storage: decode content: %w", err)
	}
	return decoded, nil
}
