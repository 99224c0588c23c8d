package store

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists records in PostgreSQL through the pgx driver.
type PostgresStore struct {
	*sqlStore
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Purger = (*PostgresStore)(nil)
)

// OpenPostgres connects with dsn and prepares the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, external(err, "store: open postgres", "")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, external(err, "store: ping postgres", "")
	}
	s, err := NewPostgresStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore prepares the schema on db.
func NewPostgresStore(ctx context.Context, db *sql.DB, opts ...Option) (*PostgresStore, error) {
	s, err := newSQLStore(ctx, db, dialect{
		name:      "postgres",
		tableName: "formflow_records",
		numbered:  true,
		schema: `
			CREATE TABLE IF NOT EXISTS formflow_records (
				reference TEXT PRIMARY KEY,
				data BYTEA NOT NULL,
				version INTEGER NOT NULL,
				updated_at BIGINT NOT NULL
			);`,
	}, opts)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: s}, nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error { return s.db.Close() }
