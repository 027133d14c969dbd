package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps every collection in one MongoDB database. Record keys
// are stored as string _id values (ObjectID hex for generated ids,
// caller-fixed strings for singletons and conversations).
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) List(ctx context.Context, collection string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %s", ErrUnavailable, collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %s", ErrUnavailable, collection, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromDocument(doc))
	}
	return records, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Record, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading %s/%s: %s", ErrUnavailable, collection, id, err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	id := bson.NewObjectID().Hex()
	now := time.Now().UnixMilli()

	doc := bson.M{"_id": id, "createdAt": now, "updatedAt": now}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: inserting into %s: %s", ErrUnavailable, collection, err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Merge(ctx context.Context, collection, id string, fields Record) (Record, error) {
	set := bson.M{"updatedAt": time.Now().UnixMilli()}
	for k, v := range fields {
		if k == "id" || k == "createdAt" {
			continue
		}
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bson.M
	err := s.db.Collection(collection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating %s/%s: %s", ErrUnavailable, collection, id, err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Write(ctx context.Context, collection, id string, fields Record) error {
	now := time.Now().UnixMilli()

	doc := bson.M{"_id": id, "updatedAt": now}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = now
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("%w: writing %s/%s: %s", ErrUnavailable, collection, id, err)
	}
	return nil
}

func (s *MongoStore) Remove(ctx context.Context, collection, id string) error {
	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: deleting %s/%s: %s", ErrUnavailable, collection, id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindByField(ctx context.Context, collection, field string, value any) ([]Record, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{field: value})
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s by %s: %s", ErrUnavailable, collection, field, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %s", ErrUnavailable, collection, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromDocument(doc))
	}
	return records, nil
}

func fromDocument(doc bson.M) Record {
	rec := make(Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			if id, ok := v.(string); ok {
				rec["id"] = id
			} else {
				rec["id"] = fmt.Sprint(v)
			}
			continue
		}
		rec[k] = v
	}
	return rec
}
