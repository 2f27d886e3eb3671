package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDocumentNotFound is returned when no document matched.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDuplicateDocument is returned when an insert hit a unique index.
	ErrDuplicateDocument = errors.New("duplicate document")
)

// DocumentStore is the small set of document operations the repositories are
// built on. Every call is bounded by defaultTimeout.
type DocumentStore struct {
	db *mongo.Database
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

// Collection exposes a collection for index management.
func (s *DocumentStore) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Get decodes the document with the given _id into out.
func (s *DocumentStore) Get(ctx context.Context, coll, id string, out any) error {
	return s.FindOne(ctx, coll, bson.M{"_id": id}, out)
}

// FindOne decodes the first document matching filter into out.
func (s *DocumentStore) FindOne(ctx context.Context, coll string, filter any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := s.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	return nil
}

// Set replaces the document with the given _id, creating it when absent.
func (s *DocumentStore) Set(ctx context.Context, coll, id string, doc any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", coll, id, err)
	}
	return nil
}

// Update applies fields with $set to the document with the given _id.
func (s *DocumentStore) Update(ctx context.Context, coll, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// QueryByField decodes every document whose field equals value into out,
// which must be a pointer to a slice. sort may be nil.
func (s *DocumentStore) QueryByField(ctx context.Context, coll, field string, value any, sort bson.D, out any) error {
	return s.Find(ctx, coll, bson.M{field: value}, sort, out)
}

// Find decodes every document matching filter into out.
func (s *DocumentStore) Find(ctx context.Context, coll string, filter any, sort bson.D, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}

	cur, err := s.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", coll, err)
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// Insert creates doc only if no document shares its unique keys.
func (s *DocumentStore) Insert(ctx context.Context, coll string, doc any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateDocument
		}
		return fmt.Errorf("insert %s: %w", coll, err)
	}
	return nil
}

// UpdateOneWhere applies update to the single document matching filter and
// decodes the updated document into out (which may be nil). The match and
// the write happen as one server-side operation. Returns ErrDocumentNotFound
// when the filter matched nothing.
func (s *DocumentStore) UpdateOneWhere(ctx context.Context, coll string, filter, update any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res := s.db.Collection(coll).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("conditional update %s: %w", coll, err)
	}
	if out == nil {
		return nil
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// Count returns the number of documents matching filter.
func (s *DocumentStore) Count(ctx context.Context, coll string, filter any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := s.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", coll, err)
	}
	return n, nil
}
