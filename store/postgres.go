package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hubenschmidt/ragserve/store/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDocumentStore implements DocumentStore using PostgreSQL
type PostgresDocumentStore struct {
	db *sql.DB
}

// PostgresChatStore implements ChatStore using PostgreSQL
type PostgresChatStore struct {
	db *sql.DB
}

// NewPostgresStores creates PostgreSQL-backed document and chat stores
func NewPostgresStores(dsn string) (DocumentStore, ChatStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runPostgresMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresDocumentStore{db: db}, &PostgresChatStore{db: db}, nil
}

func runPostgresMigrations(db *sql.DB) error {
	data, err := migrations.Postgres.ReadFile("postgres/001_init.sql")
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

func (s *PostgresDocumentStore) Put(ctx context.Context, d DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, user_id, filename, format, size_bytes, status,
			chunk_count, token_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			chunk_count = EXCLUDED.chunk_count,
			token_count = EXCLUDED.token_count,
			updated_at = EXCLUDED.updated_at`,
		d.ID, d.UserID, d.Filename, d.Format, d.SizeBytes, d.Status,
		d.ChunkCount, d.TokenCount, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) Get(ctx context.Context, id string) (DocumentRecord, error) {
	var d DocumentRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, filename, format, size_bytes, status,
			   chunk_count, token_count, created_at, updated_at
		FROM documents WHERE id = $1`, id).Scan(
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

func (s *PostgresDocumentStore) List(ctx context.Context, userID string) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, filename, format, size_bytes, status,
			   chunk_count, token_count, created_at, updated_at
		FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
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

func (s *PostgresDocumentStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user documents: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) Close() error {
	return s.db.Close()
}

// ChatStore implementation

func (s *PostgresChatStore) Add(ctx context.Context, c ChatRecord) error {
	sources, err := json.Marshal(c.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (
			id, user_id, query, answer, answered, sources,
			prompt_tokens, completion_tokens, cost, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.UserID, c.Query, c.Answer, c.Answered, string(sources),
		c.PromptTokens, c.CompletionTokens, c.Cost, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *PostgresChatStore) List(ctx context.Context, userID string, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, answer, answered, sources,
			   prompt_tokens, completion_tokens, cost, created_at
		FROM chats WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
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

func (s *PostgresChatStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user chats: %w", err)
	}
	return nil
}

func (s *PostgresChatStore) Close() error {
	return s.db.Close()
}
