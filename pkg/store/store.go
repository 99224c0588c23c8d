// Package store persists journey answers as versioned records. Every backend
// merges a save into the stored data one level deep and bumps the version.
package store

import (
	"context"
	"maps"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Record is the persisted state of one case.
type Record struct {
	Data      map[string]any `json:"data"`
	Version   int            `json:"version"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Store loads and saves versioned records keyed by case reference.
type Store interface {
	// Load returns the zero record (version 0) for an unknown reference.
	Load(ctx context.Context, ref string) (Record, error)
	// Save merges patch into the stored data and increments the version.
	Save(ctx context.Context, ref string, version int, patch map[string]any) (Record, error)
}

// Purger is implemented by stores able to drop stale records.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int, error)
}

var (
	// ErrVersionConflict is returned in strict mode when the caller's version
	// does not match the stored one.
	ErrVersionConflict = errors.New("store: version conflict", errors.CategoryConflict).
				WithTextCode("STORE_VERSION_CONFLICT")
	// ErrInvalidReference rejects blank case references.
	ErrInvalidReference = errors.New("store: case reference required", errors.CategoryBadInput).
				WithTextCode("STORE_INVALID_REFERENCE")
	// ErrContention is returned when concurrent writers keep winning the
	// compare-and-set race.
	ErrContention = errors.New("store: too much write contention", errors.CategoryConflict).
			WithTextCode("STORE_CONTENTION")
)

// maxAttempts bounds compare-and-set retries in lenient mode.
const maxAttempts = 5

// Option customises a backend.
type Option func(*options)

type options struct {
	strict bool
	now    func() time.Time
	logger logging.Logger
	ttl    time.Duration
	prefix string
}

// WithStrictVersions rejects saves whose version differs from the stored one.
func WithStrictVersions() Option {
	return func(o *options) { o.strict = true }
}

// WithClock sets the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logging.Normalize(logger) }
}

// WithTTL expires records after ttl on backends with native expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithKeyPrefix namespaces keys on key-value backends.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: logging.Nop(), prefix: "formflow:"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// MergeOneLevel returns old with patch applied per top-level key. When both
// sides hold objects the object is merged key by key; anything else is
// replaced. Inputs are not modified.
func MergeOneLevel(old, patch map[string]any) map[string]any {
	out := make(map[string]any, len(old)+len(patch))
	maps.Copy(out, old)
	for key, value := range patch {
		prev, prevOK := asObject(out[key])
		next, nextOK := asObject(value)
		if prevOK && nextOK {
			merged := make(map[string]any, len(prev)+len(next))
			maps.Copy(merged, prev)
			maps.Copy(merged, next)
			out[key] = merged
			continue
		}
		out[key] = value
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case model.AnswerSet:
		return m, true
	default:
		return nil, false
	}
}

// commit checks the caller's version against stored and builds the next
// record.
func (o options) commit(ref string, stored Record, version int, patch map[string]any) (Record, error) {
	if o.strict && version != stored.Version {
		return Record{}, ErrVersionConflict.Clone().WithMetadata(map[string]any{
			"reference": ref,
			"expected":  version,
			"actual":    stored.Version,
		})
	}
	return Record{
		Data:      MergeOneLevel(stored.Data, patch),
		Version:   stored.Version + 1,
		UpdatedAt: o.now().UTC(),
	}, nil
}

func checkRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return ErrInvalidReference
	}
	return nil
}

func contention(ref string) error {
	return ErrContention.Clone().WithMetadata(map[string]any{"reference": ref})
}

func external(err error, msg, ref string) error {
	return errors.Wrap(err, errors.CategoryExternal, msg).
		WithMetadata(map[string]any{"reference": ref})
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(data)
}

func decodeData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
