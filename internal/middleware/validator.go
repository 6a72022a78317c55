package middleware

import (
	"fmt"
	"strings"
)

// Input validation and sanitization utilities

// MaxUploadBytes caps document uploads (20 MiB)
const MaxUploadBytes = 20 << 20

// ValidateSource checks that the ingestion channel name is known
func ValidateSource(source string) error {
	allowed := map[string]bool{
		"email_upload": true,
		"json_webhook": true,
		"pdf_upload":   true,
	}
	if !allowed[strings.ToLower(source)] {
		return fmt.Errorf("invalid source: %s (allowed: email_upload, json_webhook, pdf_upload)", source)
	}
	return nil
}

// ValidateFilename rejects path traversal and control characters in
// uploaded file names.
func ValidateFilename(name string) error {
	if name == "" {
		return nil // optional; a default name is substituted
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid characters in file name")
	}
	for _, r := range name {
		if r < 32 {
			return fmt.Errorf("invalid characters in file name")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps a list limit to sane bounds
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays clamps a summary window
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}

// ValidatePageSize clamps pagination size
func ValidatePageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}
