package docextract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls machine-readable text out of raw document bytes
type Extractor interface {
	Text(data []byte) (string, error)
}

// PDFExtractor extracts plain text from PDF bytes using ledongthuc/pdf.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// Text returns the concatenated plain text of every page. Unreadable input
// returns an error; callers degrade to empty text.
func (PDFExtractor) Text(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
