// Package rag implements the retrieval-augmented pipeline: ingesting
// documents into a vector store and answering queries against them.
package rag

import (
	"strings"

	"github.com/hubenschmidt/ragserve/vector"
)

// AssembledContext is the context block handed to the language model,
// built from ranked search results under a token budget.
type AssembledContext struct {
	Text           string
	TokensUsed     int
	ChunkCount     int
	BudgetExceeded bool
}

// AssembleContext concatenates result chunks in rank order until adding
// the next chunk would exceed maxTokens. Chunks are taken greedily and
// never truncated; assembly stops at the first chunk that does not fit.
// BudgetExceeded reports that even the top-ranked chunk was too large,
// which yields an empty context.
func AssembleContext(results []vector.SearchResult, maxTokens int) AssembledContext {
	var parts []string
	used := 0

	for i, r := range results {
		if used+r.Metadata.TokenCount > maxTokens {
			if i == 0 {
				return AssembledContext{BudgetExceeded: true}
			}
			break
		}
		parts = append(parts, r.Metadata.Text)
		used += r.Metadata.TokenCount
	}

	return AssembledContext{
		Text:       strings.Join(parts, "\n\n"),
		TokensUsed: used,
		ChunkCount: len(parts),
	}
}
