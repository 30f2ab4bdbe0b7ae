package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts plain text from PDF files.
type PDFReader struct{}

func (r *PDFReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (r *PDFReader) ReadText(path string) (text string, err error) {
	// The pdf package panics on some malformed files; surface that as an
	// ordinary error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalid pdf file %s: %v", path, rec)
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	return string(out), nil
}
