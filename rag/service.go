package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/ragserve/chunker"
	"github.com/hubenschmidt/ragserve/core"
	"github.com/hubenschmidt/ragserve/embed"
	"github.com/hubenschmidt/ragserve/extract"
	"github.com/hubenschmidt/ragserve/llm"
	"github.com/hubenschmidt/ragserve/store"
	"github.com/hubenschmidt/ragserve/usage"
	"github.com/hubenschmidt/ragserve/vector"
)

// Config tunes the retrieval pipeline. Zero values fall back to the
// defaults below.
type Config struct {
	TopK             int     // search results per query
	MaxContextTokens int     // context assembly budget
	MaxUploadBytes   int64   // upload size ceiling
	DailyCostLimit   float64 // USD; warnings start at 80%
	HistoryTurns     int     // prior chat turns carried into the prompt
}

const (
	defaultTopK             = 6
	defaultMaxContextTokens = 3000
	defaultMaxUploadBytes   = 10 << 20
	defaultDailyCostLimit   = 5.0
	defaultHistoryTurns     = 5
)

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = defaultMaxContextTokens
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.DailyCostLimit == 0 {
		c.DailyCostLimit = defaultDailyCostLimit
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = defaultHistoryTurns
	}
	return c
}

// Service wires extraction, chunking, embedding, vector search, answer
// generation and usage accounting into the two pipeline entry points:
// IngestDocument and Query.
type Service struct {
	registry  *extract.Registry
	chunker   *chunker.Chunker
	embedder  *embed.Generator
	vectors   vector.Store
	responder *Responder
	tracker   *usage.Tracker
	docs      store.DocumentStore
	chats     store.ChatStore
	cfg       Config
	now       func() time.Time
}

func NewService(
	registry *extract.Registry,
	ch *chunker.Chunker,
	embedder *embed.Generator,
	vectors vector.Store,
	responder *Responder,
	tracker *usage.Tracker,
	docs store.DocumentStore,
	chats store.ChatStore,
	cfg Config,
) *Service {
	return &Service{
		registry:  registry,
		chunker:   ch,
		embedder:  embedder,
		vectors:   vectors,
		responder: responder,
		tracker:   tracker,
		docs:      docs,
		chats:     chats,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// IngestResult summarizes a completed ingestion.
type IngestResult struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkCount int     `json:"chunk_count"`
	TokenCount int     `json:"token_count"`
	Cost       float64 `json:"cost"`
}

// IngestDocument runs the full pipeline for one uploaded file: extract,
// chunk, embed, upsert. The document becomes searchable only once every
// stage succeeds; any failure rolls back vectors and metadata already
// written for it.
func (s *Service) IngestDocument(ctx context.Context, userID, filename string, data []byte) (*IngestResult, error) {
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", filename, len(data), s.cfg.MaxUploadBytes, core.ErrFileTooLarge)
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	docID := uuid.NewString()
	now := s.now().Unix()

	rec := store.DocumentRecord{
		ID:        docID,
		UserID:    userID,
		Filename:  filename,
		Format:    format,
		SizeBytes: int64(len(data)),
		Status:    store.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	result, err := s.ingest(ctx, userID, docID, filename, format, data)
	if err != nil {
		s.rollback(ctx, userID, docID)
		return nil, err
	}

	rec.Status = store.StatusCompleted
	rec.ChunkCount = result.ChunkCount
	rec.TokenCount = result.TokenCount
	rec.UpdatedAt = s.now().Unix()
	if err := s.docs.Put(ctx, rec); err != nil {
		s.rollback(ctx, userID, docID)
		return nil, fmt.Errorf("finalize document: %w", err)
	}

	log.Printf("[rag] ingested %s (%s): %d chunks, %d tokens", docID, filename, result.ChunkCount, result.TokenCount)
	return result, nil
}

func (s *Service) ingest(ctx context.Context, userID, docID, filename, format string, data []byte) (*IngestResult, error) {
	text, err := s.registry.Extract(data, format)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, core.ErrEmptyDocument)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, tokens, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	cost := s.tracker.RecordEmbedding(tokens)

	entries := make([]vector.Entry, len(chunks))
	tokenTotal := 0
	for i, c := range chunks {
		tokenTotal += c.TokenCount
		entries[i] = vector.Entry{
			ID:     vector.EntryID(docID, c.ChunkID),
			Values: vectors[i],
			Metadata: vector.Metadata{
				DocumentID: docID,
				UserID:     userID,
				ChunkID:    c.ChunkID,
				Text:       c.Text,
				TokenCount: c.TokenCount,
				StartToken: c.StartToken,
				EndToken:   c.EndToken,
				Filename:   filename,
			},
		}
	}

	if err := s.vectors.Upsert(ctx, entries); err != nil {
		return nil, core.NewProviderError("vector", 0, err)
	}

	return &IngestResult{
		DocumentID: docID,
		Filename:   filename,
		ChunkCount: len(chunks),
		TokenCount: tokenTotal,
		Cost:       cost,
	}, nil
}

// rollback removes whatever a failed ingestion left behind. Best effort;
// failures are logged, not returned, so the original error surfaces.
func (s *Service) rollback(ctx context.Context, userID, docID string) {
	if err := s.vectors.Delete(ctx, vector.Filter{UserID: userID, DocumentID: docID}); err != nil {
		log.Printf("[rag] rollback: delete vectors for %s: %v", docID, err)
	}
	if err := s.docs.Delete(ctx, docID); err != nil {
		log.Printf("[rag] rollback: delete document %s: %v", docID, err)
	}
}

// Source identifies one chunk that contributed to an answer.
type Source struct {
	DocumentID string  `json:"document_id"`
	ChunkID    int     `json:"chunk_id"`
	Filename   string  `json:"filename,omitempty"`
	Score      float64 `json:"score"`
}

// QueryResult carries the answer plus everything the caller needs to
// display provenance, spend, and limit warnings.
type QueryResult struct {
	Answer         string    `json:"answer"`
	Answered       bool      `json:"answered"`
	Sources        []Source  `json:"sources,omitempty"`
	Usage          llm.Usage `json:"usage"`
	Cost           float64   `json:"cost"`
	Warning        string    `json:"warning,omitempty"`
	BudgetExceeded bool      `json:"budget_exceeded,omitempty"`
}

// Query answers a question against the user's ingested documents. The
// search is always scoped to the user; documentIDs narrows it further when
// non-empty. Recent chat turns for the user are carried into the prompt as
// conversation history.
func (s *Service) Query(ctx context.Context, userID, query string, documentIDs []string) (*QueryResult, error) {
	embedding, tokens, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}
	cost := s.tracker.RecordEmbedding(tokens)

	filter := &vector.Filter{UserID: userID, DocumentIDs: documentIDs}
	results, err := s.vectors.Query(ctx, embedding, s.cfg.TopK, filter)
	if err != nil {
		return nil, core.NewProviderError("vector", 0, err)
	}

	assembled := AssembleContext(results, s.cfg.MaxContextTokens)

	history, err := s.history(ctx, userID)
	if err != nil {
		log.Printf("[rag] load history for %s: %v", userID, err)
	}

	answer, err := s.responder.Respond(ctx, query, assembled.Text, history)
	if err != nil {
		return nil, err
	}
	cost += s.tracker.RecordChat(answer.Usage.PromptTokens, answer.Usage.CompletionTokens)

	warning, _ := s.tracker.CheckDailyLimit(s.cfg.DailyCostLimit)

	sources := make([]Source, 0, assembled.ChunkCount)
	for _, r := range results[:assembled.ChunkCount] {
		sources = append(sources, Source{
			DocumentID: r.Metadata.DocumentID,
			ChunkID:    r.Metadata.ChunkID,
			Filename:   r.Metadata.Filename,
			Score:      r.Score,
		})
	}

	s.recordChat(ctx, userID, query, answer, sources, cost)

	return &QueryResult{
		Answer:         answer.Text,
		Answered:       answer.Answered,
		Sources:        sources,
		Usage:          answer.Usage,
		Cost:           cost,
		Warning:        warning,
		BudgetExceeded: assembled.BudgetExceeded,
	}, nil
}

// history converts the user's most recent chat turns into messages,
// oldest first.
func (s *Service) history(ctx context.Context, userID string) ([]core.Message, error) {
	if s.chats == nil {
		return nil, nil
	}
	recent, err := s.chats.List(ctx, userID, s.cfg.HistoryTurns)
	if err != nil {
		return nil, err
	}

	msgs := make([]core.Message, 0, 2*len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msgs = append(msgs, core.NewUserMessage(recent[i].Query))
		msgs = append(msgs, core.NewAssistantMessage(recent[i].Answer))
	}
	return msgs, nil
}

func (s *Service) recordChat(ctx context.Context, userID, query string, answer Answer, sources []Source, cost float64) {
	if s.chats == nil {
		return
	}
	docIDs := make([]string, 0, len(sources))
	seen := make(map[string]bool)
	for _, src := range sources {
		if !seen[src.DocumentID] {
			seen[src.DocumentID] = true
			docIDs = append(docIDs, src.DocumentID)
		}
	}

	err := s.chats.Add(ctx, store.ChatRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		Query:            query,
		Answer:           answer.Text,
		Answered:         answer.Answered,
		Sources:          docIDs,
		PromptTokens:     answer.Usage.PromptTokens,
		CompletionTokens: answer.Usage.CompletionTokens,
		Cost:             cost,
		CreatedAt:        s.now().Unix(),
	})
	if err != nil {
		log.Printf("[rag] record chat for %s: %v", userID, err)
	}
}

// DeleteDocument removes a document's vectors and metadata. The caller
// must own the document.
func (s *Service) DeleteDocument(ctx context.Context, userID, docID string) error {
	rec, err := s.docs.Get(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("document %s: %w", docID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup document: %w", err)
	}
	if rec.UserID != userID {
		return fmt.Errorf("document %s: %w", docID, core.ErrAccessDenied)
	}

	if err := s.vectors.Delete(ctx, vector.Filter{UserID: userID, DocumentID: docID}); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.docs.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	log.Printf("[rag] deleted document %s", docID)
	return nil
}

// DeleteUserData erases everything stored for a user: vectors, document
// records and chat history.
func (s *Service) DeleteUserData(ctx context.Context, userID string) error {
	if err := s.vectors.Delete(ctx, vector.Filter{UserID: userID}); err != nil {
		return fmt.Errorf("delete user vectors: %w", err)
	}
	if err := s.docs.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user documents: %w", err)
	}
	if s.chats != nil {
		if err := s.chats.DeleteUser(ctx, userID); err != nil {
			return fmt.Errorf("delete user chats: %w", err)
		}
	}
	log.Printf("[rag] erased data for user %s", userID)
	return nil
}

// Documents lists the user's document records, newest first.
func (s *Service) Documents(ctx context.Context, userID string) ([]store.DocumentRecord, error) {
	return s.docs.List(ctx, userID)
}

// ChatHistory lists the user's recent chats, newest first.
func (s *Service) ChatHistory(ctx context.Context, userID string, limit int) ([]store.ChatRecord, error) {
	if s.chats == nil {
		return nil, nil
	}
	return s.chats.List(ctx, userID, limit)
}

// UsageSummary returns the accumulated usage ledger.
func (s *Service) UsageSummary() usage.Ledger {
	return s.tracker.Summary()
}

// VectorStats reports the vector store's size.
func (s *Service) VectorStats(ctx context.Context) (vector.Stats, error) {
	return s.vectors.Stats(ctx)
}

// SupportedFormats lists the file types the service can ingest.
func (s *Service) SupportedFormats() []string {
	return s.registry.Formats()
}

// MaxUploadBytes returns the configured upload size ceiling.
func (s *Service) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}
