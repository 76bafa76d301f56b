// Package store persists document and chat metadata in SQLite or
// PostgreSQL. Vector data lives in the vector package's stores; this
// package holds the relational side: what was ingested, by whom, and
// what was asked.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an entity is not found
var ErrNotFound = errors.New("not found")

// DocumentRecord describes one ingested document.
type DocumentRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"size_bytes"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	TokenCount int    `json:"token_count"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// Document processing states.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ChatRecord describes one answered query.
type ChatRecord struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	Query            string   `json:"query"`
	Answer           string   `json:"answer"`
	Answered         bool     `json:"answered"`
	Sources          []string `json:"sources,omitempty"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	Cost             float64  `json:"cost"`
	CreatedAt        int64    `json:"created_at"`
}

// DocumentStore defines the interface for document metadata persistence
type DocumentStore interface {
	Put(ctx context.Context, d DocumentRecord) error
	Get(ctx context.Context, id string) (DocumentRecord, error)
	List(ctx context.Context, userID string) ([]DocumentRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID string) error
	Close() error
}

// ChatStore defines the interface for chat history persistence
type ChatStore interface {
	Add(ctx context.Context, c ChatRecord) error
	List(ctx context.Context, userID string, limit int) ([]ChatRecord, error)
	DeleteUser(ctx context.Context, userID string) error
	Close() error
}
