package store

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

// MemoryStore keeps records in process. Records are deep-copied in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	opts    options
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Purger = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), opts: buildOptions(opts)}
}

func (s *MemoryStore) Load(ctx context.Context, ref string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecord(s.records[ref]), nil
}

func (s *MemoryStore) Save(ctx context.Context, ref string, version int, patch map[string]any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.opts.commit(ref, s.records[ref], version, cloneData(patch))
	if err != nil {
		return Record{}, err
	}
	s.records[ref] = next
	return cloneRecord(next), nil
}

// Purge drops records not updated since olderThan.
func (s *MemoryStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ref, rec := range s.records {
		if rec.UpdatedAt.Before(olderThan) {
			delete(s.records, ref)
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec Record) Record {
	rec.Data = cloneData(rec.Data)
	return rec
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneData(t)
	case model.AnswerSet:
		return cloneData(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
