package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore mirrors MongoStore semantics in-process. It backs the tests
// and lets the whole HTTP surface run without a database.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]map[string]Record
	order map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]map[string]Record),
		order: make(map[string][]string),
	}
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.order[collection]))
	for _, id := range s.order[collection] {
		if rec, ok := s.data[collection][id]; ok {
			records = append(records, cloneRecord(rec))
		}
	}
	return records, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := bson.NewObjectID().Hex()
	now := time.Now().UnixMilli()

	rec := cloneRecord(fields)
	rec["id"] = id
	rec["createdAt"] = now
	rec["updatedAt"] = now

	s.put(collection, id, rec)
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Merge(ctx context.Context, collection, id string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}

	merged := cloneRecord(existing)
	for k, v := range fields {
		if k == "id" || k == "createdAt" {
			continue
		}
		merged[k] = v
	}
	merged["updatedAt"] = time.Now().UnixMilli()

	s.data[collection][id] = merged
	return cloneRecord(merged), nil
}

func (s *MemoryStore) Write(ctx context.Context, collection, id string, fields Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	rec := cloneRecord(fields)
	rec["id"] = id
	rec["updatedAt"] = now
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = now
	}

	s.put(collection, id, rec)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.data[collection], id)

	ids := s.order[collection]
	for i, existing := range ids {
		if existing == id {
			s.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) FindByField(ctx context.Context, collection, field string, value any) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Record
	for _, id := range s.order[collection] {
		rec, ok := s.data[collection][id]
		if ok && rec[field] == value {
			matches = append(matches, cloneRecord(rec))
		}
	}
	return matches, nil
}

func (s *MemoryStore) put(collection, id string, rec Record) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]Record)
	}
	if _, existed := s.data[collection][id]; !existed {
		s.order[collection] = append(s.order[collection], id)
	}
	s.data[collection][id] = rec
}

func cloneRecord(rec Record) Record {
	clone := make(Record, len(rec))
	for k, v := range rec {
		clone[k] = v
	}
	return clone
}
