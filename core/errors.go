package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtraction        = errors.New("text extraction failed")
	ErrEmptyDocument     = errors.New("document contains no extractable text")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
)

// ProviderError wraps a failure from an upstream provider with enough
// context for caller-level retry: which stage failed and, for batched
// operations, which batch index.
type ProviderError struct {
	Stage string // "embedding", "chat", "vector"
	Batch int    // batch index for batched calls, -1 otherwise
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("%s provider [batch=%d]: %v", e.Stage, e.Batch, e.Err)
	}
	return fmt.Sprintf("%s provider: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(stage string, batch int, err error) *ProviderError {
	return &ProviderError{Stage: stage, Batch: batch, Err: err}
}
