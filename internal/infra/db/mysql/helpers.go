package mysql

import "strings"

// jsonOrEmpty returns "{}" when the blob is blank; the text columns are
// expected to always hold valid JSON.
func jsonOrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
