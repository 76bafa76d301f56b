// Package token provides token counting, encoding and decoding for the
// model vocabulary used by embedding and chat calls.
package token

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps a tiktoken encoding. All chunking, budgeting and billing
// in this repository counts tokens through one of these.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates a Tokenizer using the cl100k_base encoding, which
// covers the text-embedding-3 and gpt-4o model families.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// ForModel creates a Tokenizer matching a specific model's vocabulary.
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("encoding for model %s: %w", model, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode converts text to token IDs.
func (t *Tokenizer) Encode(s string) []int {
	return t.enc.Encode(s, nil, nil)
}

// Decode converts token IDs back to text. Encoding and decoding is lossless.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// Truncate returns s cut to at most maxTokens tokens.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return t.enc.Decode(tokens[:maxTokens])
}
