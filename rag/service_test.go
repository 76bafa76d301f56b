package rag

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hubenschmidt/ragserve/chunker"
	"github.com/hubenschmidt/ragserve/core"
	"github.com/hubenschmidt/ragserve/embed"
	"github.com/hubenschmidt/ragserve/extract"
	"github.com/hubenschmidt/ragserve/llm"
	"github.com/hubenschmidt/ragserve/store"
	"github.com/hubenschmidt/ragserve/usage"
	"github.com/hubenschmidt/ragserve/vector"
)

// wordTokenizer treats each whitespace-separated word as one token.
type wordTokenizer struct{}

func (wordTokenizer) Encode(s string) []int {
	ids := make([]int, len(strings.Fields(s)))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i := range tokens {
		words[i] = "w"
	}
	return strings.Join(words, " ")
}

type fakeEmbedClient struct {
	err   error
	calls int
}

func (f *fakeEmbedClient) EmbedBatch(ctx context.Context, model string, inputs []string) (*llm.EmbeddingBatch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(inputs))
	for i := range inputs {
		vectors[i] = []float64{1, 0, 0}
	}
	return &llm.EmbeddingBatch{Vectors: vectors, TotalTokens: 10 * len(inputs)}, nil
}

type serviceFixture struct {
	svc     *Service
	vectors vector.Store
	docs    store.DocumentStore
	chats   store.ChatStore
	chat    *fakeChatClient
	embed   *fakeEmbedClient
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	docs, chats, err := store.NewSQLiteStores(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { docs.Close() })

	ch, err := chunker.New(wordTokenizer{}, 500, 50)
	if err != nil {
		t.Fatal(err)
	}

	embedClient := &fakeEmbedClient{}
	chatClient := &fakeChatClient{reply: "Grounded answer."}
	vectors := vector.NewSerialized(vector.NewMemoryStore(3))

	svc := NewService(
		extract.DefaultRegistry(),
		ch,
		embed.NewGenerator(embedClient, "text-embedding-3-small", 100),
		vectors,
		NewResponder(chatClient, core.DefaultGenerationConfig("gpt-4o-mini")),
		usage.NewTracker("text-embedding-3-small", "gpt-4o-mini"),
		docs,
		chats,
		Config{},
	)

	return &serviceFixture{svc: svc, vectors: vectors, docs: docs, chats: chats, chat: chatClient, embed: embedClient}
}

func TestIngestThenQuery(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	data := []byte(strings.Repeat("alpha beta gamma ", 20))
	res, err := f.svc.IngestDocument(ctx, "u1", "notes.txt", data)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", res.ChunkCount)
	}

	doc, err := f.docs.Get(ctx, res.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != store.StatusCompleted {
		t.Errorf("status = %s", doc.Status)
	}

	stats, _ := f.vectors.Stats(ctx)
	if stats.VectorCount != 1 {
		t.Errorf("vector count = %d, want 1", stats.VectorCount)
	}

	qr, err := f.svc.Query(ctx, "u1", "what do the notes say?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !qr.Answered || qr.Answer != "Grounded answer." {
		t.Errorf("query result = %+v", qr)
	}
	if len(qr.Sources) != 1 || qr.Sources[0].DocumentID != res.DocumentID {
		t.Errorf("sources = %+v", qr.Sources)
	}
	if qr.Cost <= 0 {
		t.Errorf("cost = %f, want > 0", qr.Cost)
	}

	chats, _ := f.svc.ChatHistory(ctx, "u1", 10)
	if len(chats) != 1 || chats[0].Query != "what do the notes say?" {
		t.Errorf("chat history = %+v", chats)
	}
}

func TestIngestUnsupportedFormatRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.IngestDocument(ctx, "u1", "img.png", []byte("data"))
	if !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}

	docs, _ := f.svc.Documents(ctx, "u1")
	if len(docs) != 0 {
		t.Errorf("failed ingest left %d document records", len(docs))
	}
}

func TestIngestFileTooLarge(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.svc.cfg.MaxUploadBytes = 10

	_, err := f.svc.IngestDocument(ctx, "u1", "big.txt", []byte("this is more than ten bytes"))
	if !errors.Is(err, core.ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.IngestDocument(ctx, "u1", "empty.txt", []byte("   \n\n  "))
	if !errors.Is(err, core.ErrEmptyDocument) {
		t.Errorf("error = %v, want ErrEmptyDocument", err)
	}
}

func TestIngestEmbeddingFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.embed.err = errors.New("provider down")

	_, err := f.svc.IngestDocument(ctx, "u1", "notes.txt", []byte("some words here"))
	var pe *core.ProviderError
	if !errors.As(err, &pe) || pe.Stage != "embedding" {
		t.Fatalf("error = %v, want embedding ProviderError", err)
	}

	docs, _ := f.svc.Documents(ctx, "u1")
	if len(docs) != 0 {
		t.Errorf("failed ingest left %d document records", len(docs))
	}
	stats, _ := f.vectors.Stats(ctx)
	if stats.VectorCount != 0 {
		t.Errorf("failed ingest left %d vectors", stats.VectorCount)
	}
}

func TestQueryScopedToDocuments(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	r1, err := f.svc.IngestDocument(ctx, "u1", "a.txt", []byte("first document words"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.IngestDocument(ctx, "u1", "b.txt", []byte("second document words")); err != nil {
		t.Fatal(err)
	}

	qr, err := f.svc.Query(ctx, "u1", "q", []string{r1.DocumentID})
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range qr.Sources {
		if src.DocumentID != r1.DocumentID {
			t.Errorf("out-of-scope source %s", src.DocumentID)
		}
	}
}

func TestQueryNoDocumentsFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	qr, err := f.svc.Query(ctx, "u1", "anything at all", nil)
	if err != nil {
		t.Fatal(err)
	}
	if qr.Answered {
		t.Error("query with no documents marked answered")
	}
	if qr.Answer != FallbackAnswer {
		t.Errorf("answer = %q", qr.Answer)
	}
	if f.chat.calls != 0 {
		t.Error("chat provider called with empty context")
	}
}

func TestDeleteDocumentOwnership(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	res, err := f.svc.IngestDocument(ctx, "u1", "a.txt", []byte("some words"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteDocument(ctx, "u2", res.DocumentID); !errors.Is(err, core.ErrAccessDenied) {
		t.Errorf("cross-user delete: %v, want ErrAccessDenied", err)
	}

	if err := f.svc.DeleteDocument(ctx, "u1", res.DocumentID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteDocument(ctx, "u1", res.DocumentID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: %v, want ErrNotFound", err)
	}

	stats, _ := f.vectors.Stats(ctx)
	if stats.VectorCount != 0 {
		t.Errorf("delete left %d vectors", stats.VectorCount)
	}
}

func TestDeleteUserDataErasesEverything(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	if _, err := f.svc.IngestDocument(ctx, "u1", "a.txt", []byte("some words")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Query(ctx, "u1", "q", nil); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteUserData(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	docs, _ := f.svc.Documents(ctx, "u1")
	chats, _ := f.svc.ChatHistory(ctx, "u1", 10)
	stats, _ := f.vectors.Stats(ctx)
	if len(docs) != 0 || len(chats) != 0 || stats.VectorCount != 0 {
		t.Errorf("user data remains: %d docs, %d chats, %d vectors", len(docs), len(chats), stats.VectorCount)
	}
}

func TestUsageAccumulatesAcrossOperations(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	if _, err := f.svc.IngestDocument(ctx, "u1", "a.txt", []byte("alpha beta gamma")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Query(ctx, "u1", "q", nil); err != nil {
		t.Fatal(err)
	}

	ledger := f.svc.UsageSummary()
	if ledger.EmbeddingTokens == 0 {
		t.Error("embedding tokens not recorded")
	}
	if ledger.InputTokens == 0 || ledger.OutputTokens == 0 {
		t.Error("chat tokens not recorded")
	}
}
