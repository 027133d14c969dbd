package resource

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"portfolio-backend/internal/storage"
	"portfolio-backend/internal/store"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Definitions builds every content resource served by the generic
// controller. The store and uploader are captured by the hooks that need
// cross-collection writes (skill media linking).
func Definitions(st store.Store, uploader storage.Uploader) []Definition {
	return []Definition{
		{
			Name:         "projects",
			Required:     []string{"title", "description"},
			CoverField:   "image",
			GalleryField: "images",
			JSONFields:   []string{"technologies"},
		},
		{
			Name:       "skills",
			Required:   []string{"name", "level"},
			CoverField: "image",
			OnCreate:   skillMediaHook(st, uploader),
			OnDelete:   skillMediaCascade(st, uploader),
		},
		{
			Name:       "testimonials",
			Required:   []string{"name", "message"},
			CoverField: "image",
		},
		{
			Name:       "media",
			Required:   []string{"title", "type"},
			CoverField: "file",
			Normalize:  flattenMediaAsset,
			// The asset handle is flattened into the record, so the generic
			// cover lookup never finds it.
			PriorAsset: func(rec store.Record) string {
				return rec.Str("publicId")
			},
		},
		{
			Name:     "links",
			Required: []string{"title", "url"},
		},
		{
			Name:       "experiences",
			Required:   []string{"titleFr", "titleEn", "organization"},
			SortField:  "startDate",
			JSONFields: []string{"technologies"},
			Normalize:  clearEndDateWhenCurrent,
		},
		{
			Name:      "formations",
			Required:  []string{"titleFr", "titleEn", "organization"},
			SortField: "startDate",
			Normalize: clearEndDateWhenCurrent,
		},
		{
			Name:     "languages",
			Required: []string{"nameFr", "nameEn"},
		},
		{
			Name:     "interests",
			Required: []string{"nameFr", "nameEn"},
		},
	}
}

// clearEndDateWhenCurrent forces endDate to null while the position is
// marked current.
func clearEndDateWhenCurrent(rec store.Record) {
	current, ok := rec["current"]
	if !ok {
		return
	}
	if current == true || current == "true" {
		rec["endDate"] = nil
	}
}

// flattenMediaAsset lifts the uploaded asset handle into the flat shape
// media records use: url, publicId, format.
func flattenMediaAsset(rec store.Record) {
	asset, ok := asMap(rec["file"])
	if !ok {
		return
	}
	delete(rec, "file")

	url, _ := asset["url"].(string)
	rec["url"] = url
	rec["publicId"] = asset["publicId"]
	if ext := filepath.Ext(url); ext != "" {
		rec["format"] = ext[1:]
	}
}

// skillMediaHook turns extra "images" uploads on skill creation into media
// records carrying the freshly generated skill id, so the gallery screens
// can query media by skill.
func skillMediaHook(st store.Store, uploader storage.Uploader) func(ctx context.Context, c fiber.Ctx, rec store.Record) error {
	return func(ctx context.Context, c fiber.Ctx, rec store.Record) error {
		form, err := c.MultipartForm()
		if err != nil || form == nil {
			return nil
		}
		files := form.File["images"]
		if len(files) == 0 {
			return nil
		}

		skillName := rec.Str("name")
		for _, fh := range files {
			file, err := fh.Open()
			if err != nil {
				return fmt.Errorf("error opening skill media upload: %w", err)
			}

			name := "media/" + uuid.NewString() + filepath.Ext(fh.Filename)
			asset, err := uploader.Upload(ctx, name, file, fh.Size, fh.Header.Get("Content-Type"))
			file.Close()
			if err != nil {
				return fmt.Errorf("error uploading skill media: %w", err)
			}

			_, err = st.Create(ctx, "media", store.Record{
				"title":    fh.Filename,
				"category": skillName,
				"type":     "image",
				"url":      asset.URL,
				"publicId": asset.PublicID,
				"skillId":  rec.ID(),
			})
			if err != nil {
				return fmt.Errorf("error creating media record for skill %s: %w", rec.ID(), err)
			}
		}
		return nil
	}
}

// skillMediaCascade removes the media records (and their remote assets)
// linked to a skill being deleted.
func skillMediaCascade(st store.Store, uploader storage.Uploader) func(ctx context.Context, rec store.Record) error {
	return func(ctx context.Context, rec store.Record) error {
		linked, err := st.FindByField(ctx, "media", "skillId", rec.ID())
		if err != nil {
			return err
		}
		for _, media := range linked {
			if publicID := media.Str("publicId"); publicID != "" {
				if err := uploader.Delete(ctx, publicID); err != nil {
					log.Printf("Warning: failed to delete remote asset %s: %v", publicID, err)
				}
			}
			if err := st.Remove(ctx, "media", media.ID()); err != nil {
				log.Printf("Warning: failed to delete media %s linked to skill %s: %v", media.ID(), rec.ID(), err)
			}
		}
		return nil
	}
}
