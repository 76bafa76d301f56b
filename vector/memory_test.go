package vector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hubenschmidt/ragserve/core"
)

func entry(docID, userID string, chunkID int, values []float64) Entry {
	return Entry{
		ID:     EntryID(docID, chunkID),
		Values: values,
		Metadata: Metadata{
			DocumentID: docID,
			UserID:     userID,
			ChunkID:    chunkID,
			Text:       fmt.Sprintf("%s chunk %d", docID, chunkID),
			TokenCount: 10,
		},
	}
}

func TestMemoryStoreQueryRanking(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	err := s.Upsert(ctx, []Entry{
		entry("doc1", "u1", 0, []float64{1, 0}),
		entry("doc1", "u1", 1, []float64{0, 1}),
		entry("doc1", "u1", 2, []float64{0.9, 0.1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Query(ctx, []float64{1, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != EntryID("doc1", 0) {
		t.Errorf("top result = %s", results[0].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not in descending score order")
	}
}

func TestMemoryStoreUserFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	s.Upsert(ctx, []Entry{
		entry("doc1", "u1", 0, []float64{1, 0}),
		entry("doc2", "u2", 0, []float64{1, 0}),
	})

	results, err := s.Query(ctx, []float64{1, 0}, 10, &Filter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Metadata.UserID != "u1" {
		t.Errorf("user filter leaked results: %+v", results)
	}
}

func TestMemoryStoreDeleteByDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	s.Upsert(ctx, []Entry{
		entry("doc1", "u1", 0, []float64{1, 0}),
		entry("doc1", "u1", 1, []float64{0, 1}),
		entry("doc2", "u1", 0, []float64{1, 1}),
	})

	if err := s.Delete(ctx, Filter{UserID: "u1", DocumentID: "doc1"}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Query(ctx, []float64{1, 0}, 10, &Filter{DocumentID: "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("query after delete returned %d results", len(results))
	}

	stats, _ := s.Stats(ctx)
	if stats.VectorCount != 1 {
		t.Errorf("vector count after delete = %d, want 1", stats.VectorCount)
	}
}

func TestMemoryStoreDocumentIDsFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	s.Upsert(ctx, []Entry{
		entry("doc1", "u1", 0, []float64{1, 0}),
		entry("doc2", "u1", 0, []float64{1, 0}),
		entry("doc3", "u1", 0, []float64{1, 0}),
	})

	results, err := s.Query(ctx, []float64{1, 0}, 10, &Filter{DocumentIDs: []string{"doc1", "doc3"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("document scope returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Metadata.DocumentID == "doc2" {
			t.Error("out-of-scope document in results")
		}
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	err := s.Upsert(ctx, []Entry{entry("doc1", "u1", 0, []float64{1, 0})})
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	e := entry("doc1", "u1", 0, []float64{1, 0})
	s.Upsert(ctx, []Entry{e})
	e.Values = []float64{0, 1}
	s.Upsert(ctx, []Entry{e})

	stats, _ := s.Stats(ctx)
	if stats.VectorCount != 1 {
		t.Errorf("re-upsert duplicated entry: count = %d", stats.VectorCount)
	}

	results, _ := s.Query(ctx, []float64{0, 1}, 1, nil)
	if results[0].Score < 0.99 {
		t.Errorf("re-upsert did not overwrite values, score = %f", results[0].Score)
	}
}

func TestSerializedStorePassthrough(t *testing.T) {
	ctx := context.Background()
	s := NewSerialized(NewMemoryStore(2))

	if err := s.Upsert(ctx, []Entry{entry("doc1", "u1", 0, []float64{1, 0})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, Filter{DocumentID: "doc1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, Filter{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	stats, _ := s.Stats(ctx)
	if stats.VectorCount != 0 {
		t.Errorf("count = %d, want 0", stats.VectorCount)
	}
}

func TestSerializedStoreConcurrentUpsertDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSerialized(NewMemoryStore(2))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Upsert(ctx, []Entry{entry("doc1", "u1", i, []float64{1, 0})})
		}
	}()
	for i := 0; i < 100; i++ {
		s.Delete(ctx, Filter{DocumentID: "doc1"})
	}
	<-done
}
