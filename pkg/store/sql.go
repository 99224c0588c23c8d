package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name      string
	schema    string
	numbered  bool
	tableName string
}

// sqlStore implements Store on database/sql with compare-and-set updates.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	opts    options
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, opts []Option) (*sqlStore, error) {
	s := &sqlStore{db: db, dialect: d, opts: buildOptions(opts)}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, external(err, "store: create "+d.name+" schema", "")
	}
	return s, nil
}

// rebind rewrites ? placeholders for drivers using numbered parameters.
func (s *sqlStore) rebind(query string) string {
	query = strings.ReplaceAll(query, "{table}", s.dialect.tableName)
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Load(ctx context.Context, ref string) (Record, error) {
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	rec, _, err := s.load(ctx, ref)
	return rec, err
}

func (s *sqlStore) load(ctx context.Context, ref string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT data, version, updated_at FROM {table} WHERE reference = ?`), ref)

	var raw []byte
	var version int
	var updated int64
	if err := row.Scan(&raw, &version, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{Data: map[string]any{}}, false, nil
		}
		return Record{}, false, external(err, "store: load record", ref)
	}
	data, err := decodeData(raw)
	if err != nil {
		return Record{}, false, external(err, "store: decode record", ref)
	}
	return Record{Data: data, Version: version, UpdatedAt: time.Unix(0, updated).UTC()}, true, nil
}

func (s *sqlStore) Save(ctx context.Context, ref string, version int, patch map[string]any) (Record, error) {
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		stored, exists, err := s.load(ctx, ref)
		if err != nil {
			return Record{}, err
		}
		next, err := s.opts.commit(ref, stored, version, patch)
		if err != nil {
			return Record{}, err
		}
		raw, err := encodeData(next.Data)
		if err != nil {
			return Record{}, external(err, "store: encode record", ref)
		}

		var res sql.Result
		if exists {
			res, err = s.db.ExecContext(ctx, s.rebind(`
				UPDATE {table} SET data = ?, version = ?, updated_at = ?
				WHERE reference = ? AND version = ?`),
				raw, next.Version, next.UpdatedAt.UnixNano(), ref, stored.Version)
		} else {
			res, err = s.db.ExecContext(ctx, s.rebind(`
				INSERT INTO {table} (reference, data, version, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (reference) DO NOTHING`),
				ref, raw, next.Version, next.UpdatedAt.UnixNano())
		}
		if err != nil {
			return Record{}, external(err, "store: save record", ref)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return Record{}, external(err, "store: save record", ref)
		}
		if affected == 1 {
			return next, nil
		}
		if s.opts.strict {
			return Record{}, ErrVersionConflict.Clone().WithMetadata(map[string]any{"reference": ref})
		}
		s.opts.logger.Debug("store: %s compare-and-set lost for %s, retrying", s.dialect.name, ref)
	}
	return Record{}, contention(ref)
}

func (s *sqlStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM {table} WHERE updated_at < ?`), olderThan.UnixNano())
	if err != nil {
		return 0, external(err, "store: purge records", "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, external(err, "store: purge records", "")
	}
	return int(n), nil
}
