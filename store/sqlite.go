package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hubenschmidt/ragserve/store/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteDocumentStore implements DocumentStore using SQLite
type SQLiteDocumentStore struct {
	db *sql.DB
}

// SQLiteChatStore implements ChatStore using SQLite
type SQLiteChatStore struct {
	db *sql.DB
}

// NewSQLiteStores creates SQLite-backed document and chat stores
func NewSQLiteStores(dsn string) (DocumentStore, ChatStore, error) {
	if dsn == "" {
		dsn = "data/ragserve.db"
	}

	dir := filepath.Dir(dsn)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := runSQLiteMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDocumentStore{db: db}, &SQLiteChatStore{db: db}, nil
}

func runSQLiteMigrations(db *sql.DB) error {
	data, err := migrations.SQLite.ReadFile("sqlite/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	_, err = db.Exec(string(data))
	if err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// DocumentStore implementation

func (s *SQLiteDocumentStore) Put(ctx context.Context, d DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (
			id, user_id, filename, format, size_bytes, status,
			chunk_count, token_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Filename, d.Format, d.SizeBytes, d.Status,
		d.ChunkCount, d.TokenCount, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Get(ctx context.Context, id string) (DocumentRecord, error) {
	var d DocumentRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, filename, format, size_bytes, status,
			   chunk_count, token_count, created_at, updated_at
		FROM documents WHERE id = ?`, id).Scan(
		&d.ID, &d.UserID, &d.Filename, &d.Format, &d.SizeBytes, &d.Status,
		&d.ChunkCount, &d.TokenCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("query document: %w", err)
	}
	return d, nil
}

func (s *SQLiteDocumentStore) List(ctx context.Context, userID string) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, filename, format, size_bytes, status,
			   chunk_count, token_count, created_at, updated_at
		FROM documents WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Filename, &d.Format, &d.SizeBytes, &d.Status,
			&d.ChunkCount, &d.TokenCount, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteDocumentStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user documents: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}

// ChatStore implementation

func (s *SQLiteChatStore) Add(ctx context.Context, c ChatRecord) error {
	sources, err := json.Marshal(c.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chats (
			id, user_id, query, answer, answered, sources,
			prompt_tokens, completion_tokens, cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Query, c.Answer, c.Answered, string(sources),
		c.PromptTokens, c.CompletionTokens, c.Cost, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *SQLiteChatStore) List(ctx context.Context, userID string, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, answer, answered, sources,
			   prompt_tokens, completion_tokens, cost, created_at
		FROM chats WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var chats []ChatRecord
	for rows.Next() {
		var c ChatRecord
		var sourcesJSON string
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Query, &c.Answer, &c.Answered, &sourcesJSON,
			&c.PromptTokens, &c.CompletionTokens, &c.Cost, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &c.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (s *SQLiteChatStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user chats: %w", err)
	}
	return nil
}

func (s *SQLiteChatStore) Close() error {
	return s.db.Close()
}
