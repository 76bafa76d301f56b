// Package chunker splits document text into overlapping fixed-size token
// windows for embedding.
package chunker

import (
	"fmt"

	"github.com/hubenschmidt/ragserve/core"
)

// Tokenizer is the encoding surface the chunker needs. token.Tokenizer
// satisfies it.
type Tokenizer interface {
	Encode(s string) []int
	Decode(tokens []int) string
}

// Chunker slides a window of chunkSize tokens over a document, advancing
// chunkSize-overlap tokens per step. Identical input always produces an
// identical chunk sequence.
type Chunker struct {
	tok       Tokenizer
	chunkSize int
	overlap   int
}

// New validates the window parameters up front. chunkSize must be strictly
// greater than overlap, otherwise the window would never advance.
func New(tok Tokenizer, chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", chunkSize, core.ErrInvalidConfig)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d with chunk size %d: %w", overlap, chunkSize, core.ErrInvalidConfig)
	}
	return &Chunker{tok: tok, chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk tokenizes the full text once and cuts it into windows. The final
// chunk may be shorter than chunkSize; text shorter than one window yields
// a single chunk covering all tokens.
func (c *Chunker) Chunk(text string) []core.Chunk {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var chunks []core.Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, core.Chunk{
			ChunkID:    len(chunks),
			StartToken: start,
			EndToken:   end,
			TokenCount: end - start,
			Text:       c.tok.Decode(tokens[start:end]),
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// ChunkSize returns the configured window size in tokens.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap in tokens.
func (c *Chunker) Overlap() int { return c.overlap }
