package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/hubenschmidt/ragserve/core"
)

// TextExtractor handles plain-text formats. Markdown is passed through as-is;
// chunking works on its raw text.
type TextExtractor struct{}

func (e *TextExtractor) Formats() []string {
	return []string{"txt", "md", "markdown", "log"}
}

func (e *TextExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid UTF-8: %w", core.ErrExtraction)
	}
	return string(data), nil
}
