package llm

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResponse struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage,omitempty"`
}

// EmbeddingBatch holds the vectors for one embedding call, in input order,
// plus the token usage billed for the whole call.
type EmbeddingBatch struct {
	Vectors     [][]float64 `json:"vectors"`
	TotalTokens int         `json:"total_tokens"`
}
