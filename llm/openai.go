package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hubenschmidt/ragserve/core"
)

type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func NewOpenAIClientWithConfig(cfg ClientConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Chat calls the chat completions endpoint with the full sampling
// configuration so responses stay reproducible at low temperature.
func (c *OpenAIClient) Chat(ctx context.Context, cfg core.GenerationConfig, system string, msgs []core.Message) (*ChatResponse, error) {
	messages := make([]map[string]any, 0, len(msgs)+1)
	if system != "" {
		messages = append(messages, map[string]any{"role": "system", "content": system})
	}
	for _, m := range msgs {
		messages = append(messages, map[string]any{"role": string(m.Role), "content": m.Content})
	}

	reqBody := map[string]any{
		"model":             cfg.Model,
		"messages":          messages,
		"max_tokens":        cfg.MaxTokens,
		"temperature":       cfg.Temperature,
		"top_p":             cfg.TopP,
		"frequency_penalty": cfg.FrequencyPenalty,
		"presence_penalty":  cfg.PresencePenalty,
	}

	var result openAIChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &result); err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return &ChatResponse{}, nil
	}

	return &ChatResponse{
		Content:      result.Choices[0].Message.Content,
		FinishReason: result.Choices[0].FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}

// EmbedBatch sends all inputs in one embeddings request. The response data
// is reordered by index so Vectors[i] always corresponds to inputs[i].
func (c *OpenAIClient) EmbedBatch(ctx context.Context, model string, inputs []string) (*EmbeddingBatch, error) {
	reqBody := map[string]any{
		"model":           model,
		"input":           inputs,
		"encoding_format": "float",
	}

	var result openAIEmbeddingResponse
	if err := c.post(ctx, "/embeddings", reqBody, &result); err != nil {
		return nil, err
	}
	if len(result.Data) != len(inputs) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(result.Data), len(inputs))
	}

	vectors := make([][]float64, len(inputs))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return &EmbeddingBatch{
		Vectors:     vectors,
		TotalTokens: result.Usage.TotalTokens,
	}, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}
