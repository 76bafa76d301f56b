package usage

import "sync"

// ModelPrice holds per-model unit prices. Embedding models price per 1K
// tokens; chat models price input and output separately per 1M tokens.
type ModelPrice struct {
	EmbeddingPer1K float64
	InputPer1M     float64
	OutputPer1M    float64
}

var (
	pricesMu      sync.RWMutex
	defaultPrices = map[string]ModelPrice{
		"text-embedding-3-small":     {EmbeddingPer1K: 0.00002},
		"text-embedding-3-large":     {EmbeddingPer1K: 0.00013},
		"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
		"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
		"claude-haiku-4-5-20251001":  {InputPer1M: 1.00, OutputPer1M: 5.00},
		"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
	}
)

// EmbeddingCost returns the cost of an embedding call. Unknown models cost
// zero rather than failing; billing is advisory, never blocking.
func EmbeddingCost(model string, tokens int) float64 {
	pricesMu.RLock()
	p := defaultPrices[model]
	pricesMu.RUnlock()
	return p.EmbeddingPer1K * float64(tokens) / 1000
}

// ChatCost returns the cost of a chat completion call.
func ChatCost(model string, inputTokens, outputTokens int) float64 {
	pricesMu.RLock()
	p := defaultPrices[model]
	pricesMu.RUnlock()
	return p.InputPer1M*float64(inputTokens)/1e6 + p.OutputPer1M*float64(outputTokens)/1e6
}

// RegisterPrice adds or overrides pricing for a model. Safe to call while
// trackers are recording.
func RegisterPrice(model string, price ModelPrice) {
	pricesMu.Lock()
	defaultPrices[model] = price
	pricesMu.Unlock()
}
