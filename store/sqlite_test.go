package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStores(t *testing.T) (DocumentStore, ChatStore) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	ds, cs, err := NewSQLiteStores(dsn)
	if err != nil {
		t.Fatalf("open sqlite stores: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds, cs
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	ds, _ := newTestStores(t)

	now := time.Now().Unix()
	doc := DocumentRecord{
		ID:        "doc-1",
		UserID:    "u1",
		Filename:  "notes.txt",
		Format:    "txt",
		SizeBytes: 2048,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ds.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}

	doc.Status = StatusCompleted
	doc.ChunkCount = 3
	doc.TokenCount = 1200
	if err := ds.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := ds.Get(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted || got.ChunkCount != 3 || got.TokenCount != 1200 {
		t.Errorf("document after update = %+v", got)
	}

	if err := ds.Delete(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Get(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: %v, want ErrNotFound", err)
	}
}

func TestDocumentListScopedToUser(t *testing.T) {
	ctx := context.Background()
	ds, _ := newTestStores(t)

	now := time.Now().Unix()
	for i, userID := range []string{"u1", "u1", "u2"} {
		doc := DocumentRecord{
			ID:        "doc-" + string(rune('a'+i)),
			UserID:    userID,
			Filename:  "f.txt",
			Format:    "txt",
			Status:    StatusCompleted,
			CreatedAt: now + int64(i),
			UpdatedAt: now + int64(i),
		}
		if err := ds.Put(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := ds.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents for u1, want 2", len(docs))
	}
	if docs[0].CreatedAt < docs[1].CreatedAt {
		t.Error("documents not ordered newest first")
	}
}

func TestChatHistory(t *testing.T) {
	ctx := context.Background()
	_, cs := newTestStores(t)

	c := ChatRecord{
		ID:               "chat-1",
		UserID:           "u1",
		Query:            "what is in the report?",
		Answer:           "The report covers quarterly revenue.",
		Answered:         true,
		Sources:          []string{"doc-1", "doc-2"},
		PromptTokens:     120,
		CompletionTokens: 40,
		Cost:             0.0001,
		CreatedAt:        time.Now().Unix(),
	}
	if err := cs.Add(ctx, c); err != nil {
		t.Fatal(err)
	}

	chats, err := cs.List(ctx, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 {
		t.Fatalf("got %d chats, want 1", len(chats))
	}
	got := chats[0]
	if got.Answer != c.Answer || !got.Answered {
		t.Errorf("chat = %+v", got)
	}
	if len(got.Sources) != 2 || got.Sources[0] != "doc-1" {
		t.Errorf("sources = %v", got.Sources)
	}
}

func TestDeleteUserErasesEverything(t *testing.T) {
	ctx := context.Background()
	ds, cs := newTestStores(t)

	now := time.Now().Unix()
	ds.Put(ctx, DocumentRecord{ID: "d1", UserID: "u1", Filename: "a.txt", Format: "txt", Status: StatusCompleted, CreatedAt: now, UpdatedAt: now})
	ds.Put(ctx, DocumentRecord{ID: "d2", UserID: "u2", Filename: "b.txt", Format: "txt", Status: StatusCompleted, CreatedAt: now, UpdatedAt: now})
	cs.Add(ctx, ChatRecord{ID: "c1", UserID: "u1", Query: "q", Answer: "a", CreatedAt: now})

	if err := ds.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := cs.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	docs, _ := ds.List(ctx, "u1")
	if len(docs) != 0 {
		t.Errorf("u1 still has %d documents", len(docs))
	}
	chats, _ := cs.List(ctx, "u1", 10)
	if len(chats) != 0 {
		t.Errorf("u1 still has %d chats", len(chats))
	}

	// Other users untouched.
	docs, _ = ds.List(ctx, "u2")
	if len(docs) != 1 {
		t.Errorf("u2 lost documents: %d", len(docs))
	}
}
