package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/storage"
	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// settingsJSONFields arrive JSON-encoded when the dashboard sends the
// settings form as multipart.
var settingsJSONFields = []string{"profile", "socials", "footer", "homePage"}

type SettingsHandler struct {
	store    store.Store
	uploader storage.Uploader
}

func NewSettingsHandler(st store.Store, uploader storage.Uploader) *SettingsHandler {
	return &SettingsHandler{store: st, uploader: uploader}
}

func (h *SettingsHandler) RegisterRoutes(app *fiber.App, authenticated, adminOnly fiber.Handler) {
	group := app.Group("/settings")
	group.Get("/", h.Get)
	group.Put("/", h.Update, authenticated, adminOnly)
}

// EnsureDefaults writes the settings singleton if it does not exist yet.
// Called at startup and again as a guard on the read path.
func (h *SettingsHandler) EnsureDefaults(ctx context.Context) (store.Record, error) {
	rec, err := h.store.Get(ctx, "settings", models.SettingsID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	defaults := models.DefaultSettings()
	if err := h.store.Write(ctx, "settings", models.SettingsID, defaults); err != nil {
		return nil, err
	}
	log.Println("Settings initialized with defaults")
	return h.store.Get(ctx, "settings", models.SettingsID)
}

func (h *SettingsHandler) Get(c fiber.Ctx) error {
	rec, err := h.EnsureDefaults(c.Context())
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return utils.InternalErrorResponse(c, "Failed to retrieve settings", err)
	}
	return utils.SuccessResponse(c, "", rec)
}

func (h *SettingsHandler) Update(c fiber.Ctx) error {
	existing, err := h.EnsureDefaults(c.Context())
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return utils.InternalErrorResponse(c, "Failed to retrieve settings", err)
	}

	patch := store.Record{}
	if strings.Contains(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return utils.BadRequestResponse(c, "Invalid request body")
		}
		for key, values := range form.Value {
			if len(values) > 0 {
				patch[key] = values[0]
			}
		}
	} else if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return utils.BadRequestResponse(c, "Invalid request body")
		}
	}

	delete(patch, "id")
	delete(patch, "createdAt")
	delete(patch, "updatedAt")

	for _, field := range settingsJSONFields {
		if raw, ok := patch[field].(string); ok && raw != "" {
			var decoded map[string]any
			if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
				patch[field] = decoded
			}
		}
	}

	if fh, err := c.FormFile("photo"); err == nil && fh != nil {
		file, err := fh.Open()
		if err != nil {
			log.Printf("Failed to open settings photo upload: %v", err)
			return utils.InternalErrorResponse(c, "Failed to upload photo", err)
		}

		name := "settings/" + uuid.NewString() + filepath.Ext(fh.Filename)
		asset, err := h.uploader.Upload(c.Context(), name, file, fh.Size, fh.Header.Get("Content-Type"))
		file.Close()
		if err != nil {
			log.Printf("Failed to upload settings photo: %v", err)
			return utils.InternalErrorResponse(c, "Failed to upload photo", err)
		}

		// The replaced photo is deleted best-effort.
		if oldID := existing.Str("photoPublicId"); oldID != "" {
			if err := h.uploader.Delete(c.Context(), oldID); err != nil {
				log.Printf("Warning: failed to delete remote asset %s: %v", oldID, err)
			}
		}

		profile := mergedSection(existing, patch, "profile")
		profile["photo"] = asset.URL
		patch["profile"] = profile
		patch["photoPublicId"] = asset.PublicID
	}

	updated, err := h.store.Merge(c.Context(), "settings", models.SettingsID, patch)
	if err != nil {
		log.Printf("Failed to update settings: %v", err)
		return utils.InternalErrorResponse(c, "Failed to update settings", err)
	}

	return utils.SuccessResponse(c, "Settings updated successfully", updated)
}

// mergedSection returns the incoming sub-document for a section when the
// payload carries one, otherwise a copy of the stored section, so a photo
// upload without a profile field does not wipe the profile.
func mergedSection(existing, patch store.Record, key string) map[string]any {
	if m, ok := patch[key].(map[string]any); ok {
		return m
	}
	out := map[string]any{}
	switch m := existing[key].(type) {
	case map[string]any:
		for k, v := range m {
			out[k] = v
		}
	case bson.M:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
