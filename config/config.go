// Package config loads the application configuration from a YAML file with
// environment overrides. Secrets never live in the file; they are read from
// the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hubenschmidt/ragserve/core"
)

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // openai or ollama
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// ChatConfig configures the answer-generation model.
type ChatConfig struct {
	Model           string  `yaml:"model"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// ChunkingConfig configures the token windowing of documents.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures search and context assembly.
type RetrievalConfig struct {
	TopK             int `yaml:"top_k"`
	MaxContextTokens int `yaml:"max_context_tokens"`
	HistoryTurns     int `yaml:"history_turns"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	IndexName string `yaml:"index_name"`
	IndexHost string `yaml:"index_host"`
	Cloud     string `yaml:"cloud"`
	Region    string `yaml:"region"`
}

// VectorStoreConfig selects the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"` // memory, pgvector or pinecone
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// LimitsConfig bounds uploads and spend.
type LimitsConfig struct {
	MaxUploadMB    int64   `yaml:"max_upload_mb"`
	DailyCostLimit float64 `yaml:"daily_cost_limit"`
}

// Config is the root application configuration.
type Config struct {
	Addr        string            `yaml:"addr"`
	DatabaseDSN string            `yaml:"database_dsn"`
	OllamaURL   string            `yaml:"ollama_url"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chat        ChatConfig        `yaml:"chat"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Limits      LimitsConfig      `yaml:"limits"`

	// Secrets, environment only.
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
	PineconeKey  string `yaml:"-"`
}

// Load reads the config from path. A missing file yields defaults; a
// malformed file is an error. Environment variables are loaded from .env
// when present and always supply the API keys.
func Load(path string) (*Config, error) {
	godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Addr: ":8000",
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 100,
		},
		Chat: ChatConfig{
			Model:           "gpt-4o-mini",
			MaxOutputTokens: 300,
			Temperature:     0.1,
		},
		Chunking:    ChunkingConfig{Size: 500, Overlap: 50},
		Retrieval:   RetrievalConfig{TopK: 6, MaxContextTokens: 3000, HistoryTurns: 5},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Limits:      LimitsConfig{MaxUploadMB: 10, DailyCostLimit: 5.0},
	}
}

func applyDefaults(cfg *Config) {
	d := defaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = d.Embedding.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = d.Embedding.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = d.Embedding.Dimension
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = d.Embedding.BatchSize
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = d.Chat.Model
	}
	if cfg.Chat.MaxOutputTokens == 0 {
		cfg.Chat.MaxOutputTokens = d.Chat.MaxOutputTokens
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = d.Chunking.Size
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = d.Chunking.Overlap
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = d.Retrieval.TopK
	}
	if cfg.Retrieval.MaxContextTokens == 0 {
		cfg.Retrieval.MaxContextTokens = d.Retrieval.MaxContextTokens
	}
	if cfg.Retrieval.HistoryTurns == 0 {
		cfg.Retrieval.HistoryTurns = d.Retrieval.HistoryTurns
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = d.VectorStore.Type
	}
	if cfg.Limits.MaxUploadMB == 0 {
		cfg.Limits.MaxUploadMB = d.Limits.MaxUploadMB
	}
	if cfg.Limits.DailyCostLimit == 0 {
		cfg.Limits.DailyCostLimit = d.Limits.DailyCostLimit
	}
}

func applyEnv(cfg *Config) {
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.PineconeKey = os.Getenv("PINECONE_API_KEY")

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
}

func validate(cfg *Config) error {
	if cfg.Chunking.Overlap < 0 || cfg.Chunking.Overlap >= cfg.Chunking.Size {
		return fmt.Errorf("chunk overlap %d with size %d: %w",
			cfg.Chunking.Overlap, cfg.Chunking.Size, core.ErrInvalidConfig)
	}
	switch cfg.VectorStore.Type {
	case "memory", "pgvector", "pinecone":
	default:
		return fmt.Errorf("vector store type %q: %w", cfg.VectorStore.Type, core.ErrInvalidConfig)
	}
	if cfg.VectorStore.Type == "pinecone" && cfg.VectorStore.Pinecone == nil {
		return fmt.Errorf("pinecone store selected without pinecone section: %w", core.ErrInvalidConfig)
	}
	return nil
}
