// Package vector provides vector storage and similarity search over
// document chunk embeddings.
package vector

import (
	"context"
	"fmt"
)

// Metadata is the per-entry payload persisted alongside each vector.
type Metadata struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	ChunkID    int    `json:"chunk_id"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	StartToken int    `json:"start_token"`
	EndToken   int    `json:"end_token"`
	Filename   string `json:"filename,omitempty"`
}

// Entry is one persisted vector. ID is derived from document and chunk and
// is globally unique; re-upserting the same ID overwrites.
type Entry struct {
	ID       string    `json:"id"`
	Values   []float64 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// EntryID builds the canonical vector ID for a document chunk.
func EntryID(documentID string, chunkID int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, chunkID)
}

// SearchResult is one ranked match from a similarity query.
type SearchResult struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"` // cosine similarity, descending
	Metadata Metadata `json:"metadata"`
}

// Filter restricts queries and deletes by metadata. Zero-value fields are
// ignored; DocumentID and DocumentIDs are mutually exclusive.
type Filter struct {
	UserID      string
	DocumentID  string
	DocumentIDs []string
}

// Matches reports whether m satisfies the filter.
func (f *Filter) Matches(m Metadata) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.DocumentID != "" && m.DocumentID != f.DocumentID {
		return false
	}
	if len(f.DocumentIDs) > 0 {
		found := false
		for _, id := range f.DocumentIDs {
			if m.DocumentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// documentIDs lists the document scope of the filter, nil when unscoped.
func (f *Filter) documentIDs() []string {
	if f == nil {
		return nil
	}
	if f.DocumentID != "" {
		return []string{f.DocumentID}
	}
	return f.DocumentIDs
}

// Stats describes the index contents.
type Stats struct {
	VectorCount int `json:"vector_count"`
	Dimension   int `json:"dimension"`
}

// Store provides vector storage and similarity search operations. All
// implementations verify entry dimensionality on upsert and fail with
// core.ErrDimensionMismatch on disagreement.
type Store interface {
	// Upsert stores entries, updating existing ones by ID. Large inputs are
	// written in batches; a mid-sequence failure leaves prior batches
	// committed and is reported as a *BatchError.
	Upsert(ctx context.Context, entries []Entry) error

	// Query finds the topK entries most similar to the given embedding,
	// ordered by descending cosine similarity, optionally restricted by
	// filter.
	Query(ctx context.Context, embedding []float64, topK int, filter *Filter) ([]SearchResult, error)

	// Delete removes exactly the entries matching the filter.
	Delete(ctx context.Context, filter Filter) error

	// Stats returns index statistics.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources.
	Close() error
}

// BatchError reports a batched upsert that failed partway: Committed
// batches were already written when batch Batch failed.
type BatchError struct {
	Batch     int
	Committed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upsert batch %d failed after %d committed batches: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// UpsertBatchSize caps how many vectors go into one index write.
const UpsertBatchSize = 100
