// Package embed orchestrates batched embedding generation.
package embed

import (
	"context"
	"fmt"

	"github.com/hubenschmidt/ragserve/core"
	"github.com/hubenschmidt/ragserve/llm"
)

// DefaultBatchSize caps how many texts go into one provider request.
const DefaultBatchSize = 100

// Generator batches texts through an embedding provider. It holds no
// mutable state; usage accounting is the caller's job.
type Generator struct {
	client    llm.EmbeddingClient
	model     string
	batchSize int
}

func NewGenerator(client llm.EmbeddingClient, model string, batchSize int) *Generator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Generator{client: client, model: model, batchSize: batchSize}
}

// EmbedBatch embeds texts in provider-sized batches and folds the results
// into one ordered vector sequence plus the total token usage. The contract
// is all-or-nothing: any batch failure surfaces a core.ProviderError with
// the failing batch index, and partial results are discarded.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string) ([][]float64, int, error) {
	vectors := make([][]float64, 0, len(texts))
	total := 0

	for i := 0; i < len(texts); i += g.batchSize {
		end := i + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batchIndex := i / g.batchSize

		batch, err := g.client.EmbedBatch(ctx, g.model, texts[i:end])
		if err != nil {
			return nil, 0, core.NewProviderError("embedding", batchIndex, err)
		}
		if len(batch.Vectors) != end-i {
			err := fmt.Errorf("got %d vectors for %d inputs", len(batch.Vectors), end-i)
			return nil, 0, core.NewProviderError("embedding", batchIndex, err)
		}

		vectors = append(vectors, batch.Vectors...)
		total += batch.TotalTokens
	}

	return vectors, total, nil
}

// EmbedOne embeds a single query text.
func (g *Generator) EmbedOne(ctx context.Context, text string) ([]float64, int, error) {
	vectors, tokens, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}
	return vectors[0], tokens, nil
}

// Model returns the embedding model this generator calls.
func (g *Generator) Model() string { return g.model }
