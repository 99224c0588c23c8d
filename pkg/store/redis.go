package store

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a JSON document under
// <prefix>record:<reference>. Saves run in a WATCH/MULTI transaction.
type RedisStore struct {
	client redis.UniversalClient
	opts   options
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Purger = (*RedisStore)(nil)
)

// NewRedisStore wraps client. WithKeyPrefix and WithTTL apply.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{client: client, opts: buildOptions(opts)}
}

func (s *RedisStore) key(ref string) string {
	return s.opts.prefix + "record:" + ref
}

type redisPayload struct {
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
	UpdatedAt int64           `json:"updatedAt"`
}

func (s *RedisStore) Load(ctx context.Context, ref string) (Record, error) {
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	return s.read(ctx, s.client, ref)
}

func (s *RedisStore) read(ctx context.Context, c redis.Cmdable, ref string) (Record, error) {
	raw, err := c.Get(ctx, s.key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{Data: map[string]any{}}, nil
	}
	if err != nil {
		return Record{}, external(err, "store: redis get", ref)
	}
	return decodeRedis(raw, ref)
}

func decodeRedis(raw []byte, ref string) (Record, error) {
	var payload redisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Record{}, external(err, "store: decode redis record", ref)
	}
	data, err := decodeData(payload.Data)
	if err != nil {
		return Record{}, external(err, "store: decode redis record", ref)
	}
	return Record{Data: data, Version: payload.Version, UpdatedAt: time.Unix(0, payload.UpdatedAt).UTC()}, nil
}

func (s *RedisStore) Save(ctx context.Context, ref string, version int, patch map[string]any) (Record, error) {
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	key := s.key(ref)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var next Record
		var rejected error
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := s.read(ctx, tx, ref)
			if err != nil {
				return err
			}
			next, err = s.opts.commit(ref, stored, version, patch)
			if err != nil {
				rejected = err
				return err
			}
			data, err := encodeData(next.Data)
			if err != nil {
				return external(err, "store: encode record", ref)
			}
			payload, err := json.Marshal(redisPayload{Data: data, Version: next.Version, UpdatedAt: next.UpdatedAt.UnixNano()})
			if err != nil {
				return external(err, "store: encode record", ref)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.opts.ttl)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, redis.TxFailedErr):
			if s.opts.strict {
				return Record{}, ErrVersionConflict.Clone().WithMetadata(map[string]any{"reference": ref})
			}
			s.opts.logger.Debug("store: redis transaction for %s lost a race, retrying", ref)
		case rejected != nil:
			return Record{}, rejected
		default:
			return Record{}, external(err, "store: redis save", ref)
		}
	}
	return Record{}, contention(ref)
}

// Purge scans the key prefix and deletes records not updated since
// olderThan. Stores configured WithTTL rarely need it.
func (s *RedisStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.opts.prefix+"record:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return n, external(err, "store: redis purge", key)
		}
		rec, err := decodeRedis(raw, key)
		if err != nil {
			s.opts.logger.Warn("store: skipping undecodable redis key %s: %v", key, err)
			continue
		}
		if !rec.UpdatedAt.Before(olderThan) {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return n, external(err, "store: redis purge", key)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, external(err, "store: redis purge", "")
	}
	return n, nil
}
