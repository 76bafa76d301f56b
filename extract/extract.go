// Package extract converts uploaded files into normalized plain text.
package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hubenschmidt/ragserve/core"
)

// Extractor converts raw file bytes of one or more declared formats into
// plain text.
type Extractor interface {
	// Extract returns the text content of data. Implementations return an
	// error wrapping core.ErrExtraction for corrupt input.
	Extract(data []byte) (string, error)

	// Formats lists the file extensions this extractor handles, lowercase,
	// without the leading dot.
	Formats() []string
}

// Registry maps declared file types to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry with the built-in extractors registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&TextExtractor{})
	r.Register(&CSVExtractor{})
	r.Register(&HTMLExtractor{})
	r.Register(&PDFExtractor{})
	r.Register(&DOCXExtractor{})
	return r
}

func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range e.Formats() {
		r.extractors[f] = e
	}
}

// Formats lists the registered file types.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	return formats
}

// Extract converts data of the declared type into normalized plain text.
// Unknown types fail with core.ErrUnsupportedFormat.
func (r *Registry) Extract(data []byte, declaredType string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(declaredType, "."))

	r.mu.RLock()
	e, ok := r.extractors[format]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%q: %w", declaredType, core.ErrUnsupportedFormat)
	}

	text, err := e.Extract(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	return NormalizeWhitespace(text), nil
}

// NormalizeWhitespace collapses runs of spaces and tabs, normalizes line
// endings and limits consecutive blank lines to one.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))

	blankLines := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blankLines++
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			if blankLines > 0 {
				b.WriteByte('\n')
			}
		}
		blankLines = 0
		b.WriteString(line)
	}
	return b.String()
}
