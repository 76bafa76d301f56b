package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hubenschmidt/ragserve/core"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgVectorStore is a PostgreSQL-based vector store using pgvector.
type PgVectorStore struct {
	db        *sql.DB
	dimension int
}

// NewPgVectorStore creates a pgvector-backed store. The dimension parameter
// specifies the embedding dimension (1536 for text-embedding-3-small).
func NewPgVectorStore(dsn string, dimension int) (*PgVectorStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PgVectorStore{db: db, dimension: dimension}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PgVectorStore) migrate() error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_embeddings (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			start_token INTEGER NOT NULL,
			end_token INTEGER NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			embedding vector(%d),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_embedding ON chunk_embeddings USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_document ON chunk_embeddings (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_user ON chunk_embeddings (user_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// Upsert writes entries in batches of UpsertBatchSize, each batch in its
// own transaction. A failure partway reports committed progress via
// *BatchError.
func (s *PgVectorStore) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Values) != s.dimension {
			return fmt.Errorf("entry %s has dimension %d, index expects %d: %w",
				e.ID, len(e.Values), s.dimension, core.ErrDimensionMismatch)
		}
	}

	for i := 0; i < len(entries); i += UpsertBatchSize {
		end := i + UpsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.upsertBatch(ctx, entries[i:end]); err != nil {
			batch := i / UpsertBatchSize
			return &BatchError{Batch: batch, Committed: batch, Err: err}
		}
	}
	return nil
}

func (s *PgVectorStore) upsertBatch(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_embeddings (id, document_id, user_id, chunk_id, content,
				token_count, start_token, end_token, filename, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				user_id = EXCLUDED.user_id,
				chunk_id = EXCLUDED.chunk_id,
				content = EXCLUDED.content,
				token_count = EXCLUDED.token_count,
				start_token = EXCLUDED.start_token,
				end_token = EXCLUDED.end_token,
				filename = EXCLUDED.filename,
				embedding = EXCLUDED.embedding
		`, e.ID, e.Metadata.DocumentID, e.Metadata.UserID, e.Metadata.ChunkID, e.Metadata.Text,
			e.Metadata.TokenCount, e.Metadata.StartToken, e.Metadata.EndToken, e.Metadata.Filename,
			formatEmbedding(e.Values))
		if err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Query runs a cosine nearest-neighbor search restricted by filter.
func (s *PgVectorStore) Query(ctx context.Context, embedding []float64, topK int, filter *Filter) ([]SearchResult, error) {
	where, args := filterClause(filter, 2)
	args = append([]any{formatEmbedding(embedding)}, args...)
	args = append(args, topK)

	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, chunk_id, content, token_count,
			   start_token, end_token, filename, 1 - (embedding <=> $1) AS score
		FROM chunk_embeddings
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, where, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Metadata.DocumentID, &r.Metadata.UserID, &r.Metadata.ChunkID,
			&r.Metadata.Text, &r.Metadata.TokenCount, &r.Metadata.StartToken, &r.Metadata.EndToken,
			&r.Metadata.Filename, &r.Score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Delete removes entries matching the filter.
func (s *PgVectorStore) Delete(ctx context.Context, filter Filter) error {
	where, args := filterClause(&filter, 1)
	query := "DELETE FROM chunk_embeddings " + where
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Stats returns the row count and configured dimension.
func (s *PgVectorStore) Stats(ctx context.Context) (Stats, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_embeddings`).Scan(&count)
	if err != nil {
		return Stats{}, fmt.Errorf("count: %w", err)
	}
	return Stats{VectorCount: count, Dimension: s.dimension}, nil
}

// Close closes the database connection.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}

// filterClause builds a WHERE clause for the filter, with placeholders
// starting at the given ordinal.
func filterClause(filter *Filter, start int) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any
	next := start

	if filter.UserID != "" {
		conds = append(conds, fmt.Sprintf("user_id = $%d", next))
		args = append(args, filter.UserID)
		next++
	}
	if filter.DocumentID != "" {
		conds = append(conds, fmt.Sprintf("document_id = $%d", next))
		args = append(args, filter.DocumentID)
		next++
	} else if len(filter.DocumentIDs) > 0 {
		placeholders := make([]string, len(filter.DocumentIDs))
		for i, id := range filter.DocumentIDs {
			placeholders[i] = fmt.Sprintf("$%d", next)
			args = append(args, id)
			next++
		}
		conds = append(conds, fmt.Sprintf("document_id IN (%s)", strings.Join(placeholders, ",")))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// formatEmbedding converts a float64 slice to pgvector format: "[0.1,0.2,0.3]"
func formatEmbedding(embedding []float64) string {
	if len(embedding) == 0 {
		return ""
	}

	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
