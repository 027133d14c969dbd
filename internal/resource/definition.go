package resource

import (
	"context"
	"fmt"

	"portfolio-backend/internal/store"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Definition describes one content resource to the generic controller.
// Every portfolio collection is an instance of this: same five
// operations, different required fields, sort and asset handling.
type Definition struct {
	// Name is both the collection name and the route mount point.
	Name string

	// Required fields checked on create.
	Required []string

	// SortField, when set, orders list responses by this field descending.
	// Empty means insertion order.
	SortField string

	// CoverField names the single replaceable uploaded asset ("image").
	// A new upload on update deletes the previous remote asset first.
	CoverField string

	// GalleryField names the multi-asset list filled from the "images"
	// multipart field.
	GalleryField string

	// JSONFields arrive JSON-encoded when the payload is multipart
	// (technologies, socials) and are decoded before persisting.
	JSONFields []string

	// PriorAsset returns the public id of a stored record's replaceable
	// asset, so a new upload (or a delete) can remove the remote object.
	// Unset, the controller reads the CoverField handle.
	PriorAsset func(rec store.Record) string

	// Normalize adjusts the payload before it is persisted (create and
	// update both run it).
	Normalize func(rec store.Record)

	// OnCreate runs after the record is persisted, with the generated id
	// available (skill uploads spawn linked media records here).
	OnCreate func(ctx context.Context, c fiber.Ctx, rec store.Record) error

	// OnDelete runs before the record is removed, for cascades onto
	// records in other collections.
	OnDelete func(ctx context.Context, rec store.Record) error
}

// ValidationError names the first missing required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (d *Definition) validate(rec store.Record) error {
	for _, field := range d.Required {
		v, ok := rec[field]
		if !ok || v == nil || v == "" {
			return &ValidationError{Field: field}
		}
	}
	return nil
}

// asMap unwraps a nested document regardless of whether it came from a
// JSON body or a BSON round-trip.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return m, true
	default:
		return nil, false
	}
}

// asSlice unwraps a nested list for the same reason.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case bson.A:
		return s, true
	default:
		return nil, false
	}
}
