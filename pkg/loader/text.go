package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextReader handles plain text and markdown files.
type TextReader struct{}

func (r *TextReader) CanRead(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".md"
}

func (r *TextReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	return string(buf), nil
}
