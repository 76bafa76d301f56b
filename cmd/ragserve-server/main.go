package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/hubenschmidt/ragserve/chunker"
	"github.com/hubenschmidt/ragserve/config"
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

func main() {
	cfg, err := config.Load(getEnvOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client := llm.NewUnifiedClient(llm.UnifiedConfig{
		OpenAIKey:    cfg.OpenAIKey,
		AnthropicKey: cfg.AnthropicKey,
		OllamaURL:    cfg.OllamaURL,
	})

	tok, err := token.NewTokenizer()
	if err != nil {
		log.Fatalf("load tokenizer: %v", err)
	}
	ch, err := chunker.New(tok, cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("configure chunker: %v", err)
	}

	embedModel := cfg.Embedding.Model
	if cfg.Embedding.Provider == "ollama" {
		embedModel = "ollama/" + embedModel
	}
	embedder := embed.NewGenerator(client, embedModel, cfg.Embedding.BatchSize)

	vectors, err := newVectorStore(cfg)
	if err != nil {
		log.Fatalf("initialize vector store: %v", err)
	}

	docs, chats, err := store.NewStores(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("initialize stores: %v", err)
	}
	log.Printf("[store] Initialized database storage")

	gen := core.DefaultGenerationConfig(cfg.Chat.Model).
		WithMaxTokens(cfg.Chat.MaxOutputTokens).
		WithTemperature(cfg.Chat.Temperature)

	svc := rag.NewService(
		extract.DefaultRegistry(),
		ch,
		embedder,
		vectors,
		rag.NewResponder(client, gen),
		usage.NewTracker(cfg.Embedding.Model, cfg.Chat.Model),
		docs,
		chats,
		rag.Config{
			TopK:             cfg.Retrieval.TopK,
			MaxContextTokens: cfg.Retrieval.MaxContextTokens,
			MaxUploadBytes:   cfg.Limits.MaxUploadMB << 20,
			DailyCostLimit:   cfg.Limits.DailyCostLimit,
			HistoryTurns:     cfg.Retrieval.HistoryTurns,
		},
	)

	srv := server.New(svc)
	log.Printf("Starting ragserve on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, srv.Handler()))
}

func newVectorStore(cfg *config.Config) (vector.Store, error) {
	var inner vector.Store
	switch cfg.VectorStore.Type {
	case "pgvector":
		vs, err := vector.NewPgVectorStore(cfg.DatabaseDSN, cfg.Embedding.Dimension)
		if err != nil {
			return nil, fmt.Errorf("pgvector: %w", err)
		}
		log.Printf("[vector] Initialized pgvector store")
		inner = vs
	case "pinecone":
		pc := cfg.VectorStore.Pinecone
		vs, err := vector.NewPineconeStore(vector.PineconeConfig{
			APIKey:    cfg.PineconeKey,
			IndexName: pc.IndexName,
			IndexHost: pc.IndexHost,
			Dimension: cfg.Embedding.Dimension,
			Cloud:     pc.Cloud,
			Region:    pc.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("pinecone: %w", err)
		}
		log.Printf("[vector] Initialized Pinecone store (index %s)", pc.IndexName)
		inner = vs
	default:
		log.Printf("[vector] Using in-memory vector store")
		inner = vector.NewMemoryStore(cfg.Embedding.Dimension)
	}
	return vector.NewSerialized(inner), nil
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
