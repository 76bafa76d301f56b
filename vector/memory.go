package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hubenschmidt/ragserve/core"
)

// MemoryStore is an in-memory vector store for development and testing.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	dimension int
}

// NewMemoryStore creates an in-memory store for vectors of the given
// dimension.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]Entry),
		dimension: dimension,
	}
}

// Upsert stores entries, updating existing ones by ID.
func (s *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Values) != s.dimension {
			return fmt.Errorf("entry %s has dimension %d, index expects %d: %w",
				e.ID, len(e.Values), s.dimension, core.ErrDimensionMismatch)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

// Query finds entries similar to the embedding using brute-force cosine
// similarity.
func (s *MemoryStore) Query(ctx context.Context, embedding []float64, topK int, filter *Filter) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Matches(e.Metadata) {
			continue
		}
		results = append(results, SearchResult{
			ID:       e.ID,
			Score:    CosineSimilarity(embedding, e.Values),
			Metadata: e.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes entries matching the filter.
func (s *MemoryStore) Delete(ctx context.Context, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if filter.Matches(e.Metadata) {
			delete(s.entries, id)
		}
	}
	return nil
}

// Stats returns the entry count and configured dimension.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{VectorCount: len(s.entries), Dimension: s.dimension}, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
