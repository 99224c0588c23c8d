package store

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in SQLite through modernc.org/sqlite.
type SQLiteStore struct {
	*sqlStore
}

var (
	_ Store  = (*SQLiteStore)(nil)
	_ Purger = (*SQLiteStore)(nil)
)

// OpenSQLite opens path (":memory:" for a private in-memory database) and
// prepares the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, external(err, "store: open sqlite", "")
	}
	// A single connection keeps :memory: databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore prepares the schema on db.
func NewSQLiteStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	s, err := newSQLStore(ctx, db, dialect{
		name:      "sqlite",
		tableName: "formflow_records",
		schema: `
			CREATE TABLE IF NOT EXISTS formflow_records (
				reference TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				version INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);`,
	}, opts)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
