package utils

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText extracts plain text from a PDF file. Resume uploads are
// usually PDFs; the extracted text feeds the same pipeline as plain text.
func ExtractPDFText(filename string) (string, error) {
	f, r, err := pdf.Open(filename)
	if err != nil {
		return "", fmt.Errorf("cannot open PDF %s: %w", filename, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("cannot extract text from PDF %s: %w", filename, err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("cannot read PDF text from %s: %w", filename, err)
	}

	return buf.String(), nil
}
