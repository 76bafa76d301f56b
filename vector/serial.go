package vector

import (
	"context"
	"sort"
	"sync"
)

// SerializedStore wraps a Store so that upserts and deletes touching the
// same document never interleave. Without this, an ingestion racing a
// deletion for the same document could resurrect deleted vectors.
type SerializedStore struct {
	Store

	global sync.RWMutex // held exclusively by unscoped deletes
	mu     sync.Mutex
	docs   map[string]*sync.Mutex
}

func NewSerialized(inner Store) *SerializedStore {
	return &SerializedStore{
		Store: inner,
		docs:  make(map[string]*sync.Mutex),
	}
}

func (s *SerializedStore) Upsert(ctx context.Context, entries []Entry) error {
	ids := make(map[string]struct{})
	for _, e := range entries {
		if e.Metadata.DocumentID != "" {
			ids[e.Metadata.DocumentID] = struct{}{}
		}
	}

	s.global.RLock()
	defer s.global.RUnlock()
	defer s.lockDocuments(ids)()

	return s.Store.Upsert(ctx, entries)
}

func (s *SerializedStore) Delete(ctx context.Context, filter Filter) error {
	docIDs := filter.documentIDs()
	if len(docIDs) == 0 {
		// User-level or unscoped delete: exclude every concurrent upsert.
		s.global.Lock()
		defer s.global.Unlock()
		return s.Store.Delete(ctx, filter)
	}

	ids := make(map[string]struct{}, len(docIDs))
	for _, id := range docIDs {
		ids[id] = struct{}{}
	}

	s.global.RLock()
	defer s.global.RUnlock()
	defer s.lockDocuments(ids)()

	return s.Store.Delete(ctx, filter)
}

// lockDocuments acquires the per-document locks in sorted order to avoid
// deadlock between overlapping sets, returning the matching unlock.
func (s *SerializedStore) lockDocuments(ids map[string]struct{}) func() {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	locks := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		s.mu.Lock()
		l, ok := s.docs[id]
		if !ok {
			l = &sync.Mutex{}
			s.docs[id] = l
		}
		s.mu.Unlock()

		l.Lock()
		locks = append(locks, l)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
