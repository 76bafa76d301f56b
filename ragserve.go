// Package ragserve provides a retrieval-augmented question answering
// pipeline: documents are extracted, chunked into token windows, embedded
// and stored in a vector store; queries are answered by a chat model
// grounded in the most similar chunks.
//
// Example usage:
//
//	client := ragserve.NewUnifiedClient(ragserve.UnifiedConfig{
//	    OpenAIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//
//	tok, _ := ragserve.NewTokenizer()
//	ch, _ := ragserve.NewChunker(tok, 500, 50)
//	docs, chats, _ := ragserve.NewStores("")
//
//	svc := ragserve.NewService(
//	    ragserve.DefaultExtractors(),
//	    ch,
//	    ragserve.NewEmbedder(client, "text-embedding-3-small", 100),
//	    ragserve.NewSerializedStore(ragserve.NewMemoryVectorStore(1536)),
//	    ragserve.NewResponder(client, ragserve.DefaultGenerationConfig("gpt-4o-mini")),
//	    ragserve.NewUsageTracker("text-embedding-3-small", "gpt-4o-mini"),
//	    docs, chats,
//	    ragserve.ServiceConfig{},
//	)
//
//	res, err := svc.IngestDocument(ctx, "user-1", "notes.txt", data)
//	ans, err := svc.Query(ctx, "user-1", "what do my notes say?", nil)
package ragserve

import (
	"github.com/hubenschmidt/ragserve/chunker"
	"github.com/hubenschmidt/ragserve/core"
	"github.com/hubenschmidt/ragserve/embed"
	"github.com/hubenschmidt/ragserve/extract"
	"github.com/hubenschmidt/ragserve/llm"
	"github.com/hubenschmidt/ragserve/rag"
	"github.com/hubenschmidt/ragserve/server"
	"github.com/hubenschmidt/ragserve/store"
	"github.com/hubenschmidt/ragserve/token"
	"github.com/hubenschmidt/ragserve/usage"
	"github.com/hubenschmidt/ragserve/vector"
)

// Core type aliases
type (
	Message          = core.Message
	MessageRole      = core.MessageRole
	Chunk            = core.Chunk
	GenerationConfig = core.GenerationConfig
	ProviderError    = core.ProviderError
)

// DefaultGenerationConfig returns the conservative sampling configuration
// used for grounded answering.
func DefaultGenerationConfig(model string) GenerationConfig {
	return core.DefaultGenerationConfig(model)
}

// LLM client aliases
type (
	ChatClient      = llm.ChatClient
	EmbeddingClient = llm.EmbeddingClient
	UnifiedClient   = llm.UnifiedClient
	UnifiedConfig   = llm.UnifiedConfig
)

// NewUnifiedClient creates an LLM client that routes to the appropriate
// provider by model name.
func NewUnifiedClient(cfg UnifiedConfig) *UnifiedClient {
	return llm.NewUnifiedClient(cfg)
}

// Tokenizer aliases
type Tokenizer = token.Tokenizer

// NewTokenizer returns the default cl100k_base tokenizer.
func NewTokenizer() (*Tokenizer, error) {
	return token.NewTokenizer()
}

// Chunker aliases
type Chunker = chunker.Chunker

// NewChunker creates a token-window chunker.
func NewChunker(tok chunker.Tokenizer, chunkSize, overlap int) (*Chunker, error) {
	return chunker.New(tok, chunkSize, overlap)
}

// Extraction aliases
type (
	Extractor         = extract.Extractor
	ExtractorRegistry = extract.Registry
)

// DefaultExtractors returns a registry with the built-in text, CSV and HTML
// extractors.
func DefaultExtractors() *ExtractorRegistry {
	return extract.DefaultRegistry()
}

// Embedding aliases
type Embedder = embed.Generator

// NewEmbedder creates a batched embedding generator.
func NewEmbedder(client EmbeddingClient, model string, batchSize int) *Embedder {
	return embed.NewGenerator(client, model, batchSize)
}

// Vector store aliases
type (
	VectorStore        = vector.Store
	VectorEntry        = vector.Entry
	VectorFilter       = vector.Filter
	VectorSearchResult = vector.SearchResult
	VectorStats        = vector.Stats
)

// NewMemoryVectorStore creates an in-memory vector store.
func NewMemoryVectorStore(dimension int) *vector.MemoryStore {
	return vector.NewMemoryStore(dimension)
}

// NewPgVectorStore creates a pgvector-backed vector store.
func NewPgVectorStore(dsn string, dimension int) (*vector.PgVectorStore, error) {
	return vector.NewPgVectorStore(dsn, dimension)
}

// NewPineconeStore creates a Pinecone-backed vector store.
func NewPineconeStore(cfg vector.PineconeConfig) (*vector.PineconeStore, error) {
	return vector.NewPineconeStore(cfg)
}

// NewSerializedStore wraps a vector store so writes to the same document
// never interleave.
func NewSerializedStore(inner VectorStore) *vector.SerializedStore {
	return vector.NewSerialized(inner)
}

// Persistence aliases
type (
	DocumentRecord = store.DocumentRecord
	ChatRecord     = store.ChatRecord
	DocumentStore  = store.DocumentStore
	ChatStore      = store.ChatStore
)

// NewStores creates document and chat stores for the given DSN. An empty
// DSN selects SQLite at data/ragserve.db.
func NewStores(dsn string) (DocumentStore, ChatStore, error) {
	return store.NewStores(dsn)
}

// Usage aliases
type (
	UsageTracker = usage.Tracker
	UsageLedger  = usage.Ledger
)

// NewUsageTracker creates a usage ledger priced for the given models.
func NewUsageTracker(embedModel, chatModel string) *UsageTracker {
	return usage.NewTracker(embedModel, chatModel)
}

// Pipeline aliases
type (
	Service       = rag.Service
	ServiceConfig = rag.Config
	Responder     = rag.Responder
	IngestResult  = rag.IngestResult
	QueryResult   = rag.QueryResult
	Source        = rag.Source
)

// NewService wires the full retrieval pipeline.
func NewService(
	registry *ExtractorRegistry,
	ch *Chunker,
	embedder *Embedder,
	vectors VectorStore,
	responder *Responder,
	tracker *UsageTracker,
	docs DocumentStore,
	chats ChatStore,
	cfg ServiceConfig,
) *Service {
	return rag.NewService(registry, ch, embedder, vectors, responder, tracker, docs, chats, cfg)
}

// NewResponder creates the grounded answer generator.
func NewResponder(client ChatClient, gen GenerationConfig) *Responder {
	return rag.NewResponder(client, gen)
}

// Server aliases
type Server = server.Server

// NewServer creates the HTTP front end for a service.
func NewServer(svc *Service) *Server {
	return server.New(svc)
}
