package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hubenschmidt/ragserve/core"
)

// CSVExtractor flattens tabular data into one line of text per record so
// row contents stay adjacent for chunking.
type CSVExtractor struct{}

func (e *CSVExtractor) Formats() []string {
	return []string{"csv", "tsv"}
}

func (e *CSVExtractor) Extract(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	if bytes.IndexByte(data, '\t') >= 0 && bytes.IndexByte(data, ',') < 0 {
		r.Comma = '\t'
	}

	var b strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %v: %w", err, core.ErrExtraction)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(record, " "))
	}
	return b.String(), nil
}
