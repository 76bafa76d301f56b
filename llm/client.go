package llm

import (
	"context"

	"github.com/hubenschmidt/ragserve/core"
)

// ChatClient generates a completion for a message sequence under the given
// sampling configuration.
type ChatClient interface {
	Chat(ctx context.Context, cfg core.GenerationConfig, system string, msgs []core.Message) (*ChatResponse, error)
}

// EmbeddingClient converts a batch of texts into fixed-length vectors.
// Implementations must preserve input order: Vectors[i] corresponds to
// inputs[i].
type EmbeddingClient interface {
	EmbedBatch(ctx context.Context, model string, inputs []string) (*EmbeddingBatch, error)
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout int // seconds
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{Timeout: 60}
}
