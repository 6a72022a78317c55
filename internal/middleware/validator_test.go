package middleware

import "testing"

func TestValidateSource(t *testing.T) {
	for _, ok := range []string{"email_upload", "json_webhook", "PDF_UPLOAD"} {
		if err := ValidateSource(ok); err != nil {
			t.Errorf("ValidateSource(%q) = %v", ok, err)
		}
	}
	if err := ValidateSource("ftp_drop"); err == nil {
		t.Error("unknown source accepted")
	}
}

func TestValidateFilename(t *testing.T) {
	for _, ok := range []string{"", "invoice.pdf", "report 2026.pdf"} {
		if err := ValidateFilename(ok); err != nil {
			t.Errorf("ValidateFilename(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"../etc/passwd", "a/b.pdf", "a\\b.pdf", "x\x01y.pdf"} {
		if err := ValidateFilename(bad); err == nil {
			t.Errorf("ValidateFilename(%q) accepted", bad)
		}
	}
}

func TestClampHelpers(t *testing.T) {
	if got := ValidateLimit(0); got != 20 {
		t.Errorf("ValidateLimit(0) = %d", got)
	}
	if got := ValidateLimit(500); got != 100 {
		t.Errorf("ValidateLimit(500) = %d", got)
	}
	if got := ValidateDays(-1); got != 7 {
		t.Errorf("ValidateDays(-1) = %d", got)
	}
	if got := ValidateDays(1000); got != 365 {
		t.Errorf("ValidateDays(1000) = %d", got)
	}
	if got := ValidatePageSize(0); got != 20 {
		t.Errorf("ValidatePageSize(0) = %d", got)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  a\x00b\x01c  "); got != "abc" {
		t.Errorf("SanitizeString = %q", got)
	}
}
