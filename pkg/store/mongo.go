package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore keeps one document per case reference. Data is stored as a
// JSON blob so nested answers keep their shape across backends.
type MongoStore struct {
	coll *mongo.Collection
	opts options
}

var (
	_ Store  = (*MongoStore)(nil)
	_ Purger = (*MongoStore)(nil)
)

// NewMongoStore uses dbName.collName, defaulting to formflow.records.
func NewMongoStore(client *mongo.Client, dbName, collName string, opts ...Option) *MongoStore {
	if dbName == "" {
		dbName = "formflow"
	}
	if collName == "" {
		collName = "records"
	}
	return &MongoStore{coll: client.Database(dbName).Collection(collName), opts: buildOptions(opts)}
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	Version   int       `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoStore) Load(ctx context.Context, ref string) (Record, error) {
	if err := checkRef(ref); err != nil {
		return Record{}, err
	}
	rec, _, err := s.load(ctx, ref)
	return rec, err
}

func (s *MongoStore) load(ctx context.Context, ref string) (Record, bool, error) {
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": ref}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{Data: map[string]any{}}, false, nil
	}
	if err != nil {
		return Record{}, false, external(err, "store: mongo find", ref)
	}
	data, err := decodeData(doc.Data)
	if err != nil {
		return Record{}, false, external(err, "store: decode mongo record", ref)
	}
	return Record{Data: data, Version: doc.Version, UpdatedAt: doc.UpdatedAt.UTC()}, true, nil
}

func (s *MongoStore) Save(ctx context.Context, ref string, version int, patch map[string]any) (Record, error) {
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

		if !exists {
			_, err = s.coll.InsertOne(ctx, mongoRecord{ID: ref, Data: raw, Version: next.Version, UpdatedAt: next.UpdatedAt})
			if err == nil {
				return next, nil
			}
			if !mongo.IsDuplicateKeyError(err) {
				return Record{}, external(err, "store: mongo insert", ref)
			}
		} else {
			res, err := s.coll.UpdateOne(ctx,
				bson.M{"_id": ref, "version": stored.Version},
				bson.M{"$set": bson.M{"data": raw, "version": next.Version, "updated_at": next.UpdatedAt}},
			)
			if err != nil {
				return Record{}, external(err, "store: mongo update", ref)
			}
			if res.MatchedCount == 1 {
				return next, nil
			}
		}
		if s.opts.strict {
			return Record{}, ErrVersionConflict.Clone().WithMetadata(map[string]any{"reference": ref})
		}
		s.opts.logger.Debug("store: mongo compare-and-set lost for %s, retrying", ref)
	}
	return Record{}, contention(ref)
}

// Purge deletes documents not updated since olderThan.
func (s *MongoStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": olderThan.UTC()}})
	if err != nil {
		return 0, external(err, "store: mongo purge", "")
	}
	return int(res.DeletedCount), nil
}
