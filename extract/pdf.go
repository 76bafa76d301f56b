package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hubenschmidt/ragserve/core"
)

// PDFExtractor pulls page text out of PDF files.
type PDFExtractor struct{}

func (e *PDFExtractor) Formats() []string {
	return []string{"pdf"}
}

func (e *PDFExtractor) Extract(data []byte) (text string, err error) {
	// The parser panics on some malformed files instead of returning an
	// error; surface those as extraction failures too.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v: %w", r, core.ErrExtraction)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %v: %w", err, core.ErrExtraction)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %v: %w", i, err, core.ErrExtraction)
		}
		b.WriteString(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
