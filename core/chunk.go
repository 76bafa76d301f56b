package core

// Chunk is a bounded token-window slice of a document's text. Chunks are
// immutable once created; ChunkID is the ordinal position within the
// document's chunk sequence.
type Chunk struct {
	ChunkID    int    `json:"chunk_id"`
	StartToken int    `json:"start_token"`
	EndToken   int    `json:"end_token"`
	TokenCount int    `json:"token_count"`
	Text       string `json:"text"`
}
