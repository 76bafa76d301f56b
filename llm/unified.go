// Package llm contains hand-rolled HTTP clients for the chat completion and
// embedding providers the pipeline talks to.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubenschmidt/ragserve/core"
)

// UnifiedClient routes chat and embedding calls to the appropriate provider
// by model name prefix.
type UnifiedClient struct {
	openai      *OpenAIClient
	anthropic   *AnthropicClient
	ollamaEmbed *OllamaEmbedClient
}

type UnifiedConfig struct {
	OpenAIKey    string
	AnthropicKey string
	OllamaURL    string
}

func NewUnifiedClient(cfg UnifiedConfig) *UnifiedClient {
	u := &UnifiedClient{}

	if cfg.OpenAIKey != "" {
		u.openai = NewOpenAIClient(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		u.anthropic = NewAnthropicClient(cfg.AnthropicKey)
	}
	if cfg.OllamaURL != "" {
		u.ollamaEmbed = NewOllamaEmbedClient(cfg.OllamaURL)
	}

	return u
}

func (u *UnifiedClient) Chat(ctx context.Context, cfg core.GenerationConfig, system string, msgs []core.Message) (*ChatResponse, error) {
	if strings.HasPrefix(cfg.Model, "claude-") {
		if u.anthropic == nil {
			return nil, fmt.Errorf("no Anthropic client configured for model %s", cfg.Model)
		}
		return u.anthropic.Chat(ctx, cfg, system, msgs)
	}
	if u.openai == nil {
		return nil, fmt.Errorf("no chat client configured for model %s", cfg.Model)
	}
	return u.openai.Chat(ctx, cfg, system, msgs)
}

func (u *UnifiedClient) EmbedBatch(ctx context.Context, model string, inputs []string) (*EmbeddingBatch, error) {
	if strings.HasPrefix(model, "ollama/") {
		if u.ollamaEmbed == nil {
			return nil, fmt.Errorf("no Ollama client configured for model %s", model)
		}
		return u.ollamaEmbed.EmbedBatch(ctx, strings.TrimPrefix(model, "ollama/"), inputs)
	}
	if u.openai == nil {
		return nil, fmt.Errorf("no embedding client configured for model %s", model)
	}
	return u.openai.EmbedBatch(ctx, model, inputs)
}

var (
	_ ChatClient      = (*UnifiedClient)(nil)
	_ EmbeddingClient = (*UnifiedClient)(nil)
)
