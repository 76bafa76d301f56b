package store

import (
	"fmt"
	"strings"
)

// NewStores creates document and chat stores based on the DSN.
// - Empty DSN: SQLite at data/ragserve.db
// - postgres:// or postgresql://: PostgreSQL
// - Anything else: SQLite at the specified path
func NewStores(dsn string) (DocumentStore, ChatStore, error) {
	if dsn == "" {
		return NewSQLiteStores("data/ragserve.db")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		ds, cs, err := NewPostgresStores(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return ds, cs, nil
	}

	return NewSQLiteStores(dsn)
}
