// Package store provides the content store used by every resource in the
// portfolio: a flat set of named collections holding schemaless records
// keyed by generated string ids.
package store

import (
	"context"
	"errors"
)

// Record is one stored document. Records always carry their key under "id"
// when returned, plus "createdAt"/"updatedAt" unix-millisecond timestamps.
type Record map[string]any

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the adapter every controller talks to. Operations are not
// atomic across calls; a create-then-link sequence can be observed in a
// partially written state by a concurrent reader.
type Store interface {
	// List returns every record in a collection, oldest first. An absent or
	// empty collection yields an empty slice, never an error.
	List(ctx context.Context, collection string) ([]Record, error)

	// Get returns one record, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Record, error)

	// Create persists fields under a freshly generated id, stamps
	// createdAt/updatedAt and returns the full record.
	Create(ctx context.Context, collection string, fields Record) (Record, error)

	// Merge shallow-merges fields onto an existing record, bumps updatedAt
	// and returns the merged record. ErrNotFound when the id is unknown.
	Merge(ctx context.Context, collection, id string, fields Record) (Record, error)

	// Write overwrites (or creates) the record at a caller-chosen id. Used
	// for singletons (settings, admin) and conversation histories.
	Write(ctx context.Context, collection, id string, fields Record) error

	// Remove deletes a record, ErrNotFound when absent.
	Remove(ctx context.Context, collection, id string) error

	// FindByField returns every record whose field equals value.
	FindByField(ctx context.Context, collection, field string, value any) ([]Record, error)
}

// ID returns the record key, or "" when the record has none yet.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Str returns a string field, or "" when missing or not a string.
func (r Record) Str(key string) string {
	v, _ := r[key].(string)
	return v
}

// Int64 coerces a numeric field; BSON round-trips may widen ints.
func (r Record) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
