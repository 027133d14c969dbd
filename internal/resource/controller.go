package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"

	"portfolio-backend/internal/storage"
	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Controller serves the list/get/create/update/delete contract for one
// resource Definition. The content collections all share this code; only
// the Definition differs.
type Controller struct {
	def      Definition
	store    store.Store
	uploader storage.Uploader
}

func NewController(def Definition, st store.Store, uploader storage.Uploader) *Controller {
	return &Controller{
		def:      def,
		store:    st,
		uploader: uploader,
	}
}

// RegisterRoutes mounts the resource under its name. Reads are public,
// mutations go through the auth gate.
func (ct *Controller) RegisterRoutes(app *fiber.App, authenticated, adminOnly fiber.Handler) {
	group := app.Group("/" + ct.def.Name)
	group.Get("/", ct.List)
	group.Get("/:id", ct.Get)
	group.Post("/", ct.Create, authenticated, adminOnly)
	group.Put("/:id", ct.Update, authenticated, adminOnly)
	group.Delete("/:id", ct.Delete, authenticated, adminOnly)
}

func (ct *Controller) List(c fiber.Ctx) error {
	records, err := ct.store.List(c.Context(), ct.def.Name)
	if err != nil {
		log.Printf("Failed to list %s: %v", ct.def.Name, err)
		return utils.InternalErrorResponse(c, "Failed to retrieve "+ct.def.Name, err)
	}

	if ct.def.SortField != "" {
		field := ct.def.SortField
		sort.SliceStable(records, func(i, j int) bool {
			return fmt.Sprint(records[i][field]) > fmt.Sprint(records[j][field])
		})
	}

	return utils.SuccessResponse(c, "", records)
}

func (ct *Controller) Get(c fiber.Ctx) error {
	id := c.Params("id")

	rec, err := ct.store.Get(c.Context(), ct.def.Name, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Resource not found")
		}
		log.Printf("Failed to get %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to retrieve resource", err)
	}

	return utils.SuccessResponse(c, "", rec)
}

func (ct *Controller) Create(c fiber.Ctx) error {
	rec, err := ct.parsePayload(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := ct.def.validate(rec); err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	if err := ct.graftUploads(c, rec, nil); err != nil {
		log.Printf("Failed to upload assets for %s: %v", ct.def.Name, err)
		return utils.InternalErrorResponse(c, "Failed to upload attachment", err)
	}

	if ct.def.Normalize != nil {
		ct.def.Normalize(rec)
	}

	created, err := ct.store.Create(c.Context(), ct.def.Name, rec)
	if err != nil {
		log.Printf("Failed to create %s: %v", ct.def.Name, err)
		return utils.InternalErrorResponse(c, "Failed to create resource", err)
	}

	if ct.def.OnCreate != nil {
		if err := ct.def.OnCreate(c.Context(), c, created); err != nil {
			log.Printf("Warning: post-create hook failed for %s/%s: %v", ct.def.Name, created.ID(), err)
		}
	}

	return utils.CreatedResponse(c, "Resource created successfully", created)
}

func (ct *Controller) Update(c fiber.Ctx) error {
	id := c.Params("id")

	existing, err := ct.store.Get(c.Context(), ct.def.Name, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Resource not found")
		}
		log.Printf("Failed to get %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to retrieve resource", err)
	}

	rec, err := ct.parsePayload(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := ct.graftUploads(c, rec, existing); err != nil {
		log.Printf("Failed to upload assets for %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to upload attachment", err)
	}

	if ct.def.Normalize != nil {
		ct.def.Normalize(rec)
	}

	updated, err := ct.store.Merge(c.Context(), ct.def.Name, id, rec)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Resource not found")
		}
		log.Printf("Failed to update %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to update resource", err)
	}

	return utils.SuccessResponse(c, "Resource updated successfully", updated)
}

func (ct *Controller) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	existing, err := ct.store.Get(c.Context(), ct.def.Name, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Resource not found")
		}
		log.Printf("Failed to get %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to retrieve resource", err)
	}

	// Remote asset cleanup never blocks record removal; a failed delete
	// orphans the asset and is only logged.
	ct.deleteRemoteAssets(c.Context(), existing)

	if ct.def.OnDelete != nil {
		if err := ct.def.OnDelete(c.Context(), existing); err != nil {
			log.Printf("Warning: cascade delete failed for %s/%s: %v", ct.def.Name, id, err)
		}
	}

	if err := ct.store.Remove(c.Context(), ct.def.Name, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Resource not found")
		}
		log.Printf("Failed to delete %s/%s: %v", ct.def.Name, id, err)
		return utils.InternalErrorResponse(c, "Failed to delete resource", err)
	}

	return utils.SuccessResponse(c, "Resource deleted successfully", nil)
}

// parsePayload reads either a JSON body or a multipart form into a record.
// Multipart string values stay strings; fields listed in JSONFields are
// decoded from their JSON encoding.
func (ct *Controller) parsePayload(c fiber.Ctx) (store.Record, error) {
	rec := store.Record{}

	if strings.Contains(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for key, values := range form.Value {
			if len(values) > 0 {
				rec[key] = values[0]
			}
		}
	} else if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &rec); err != nil {
			return nil, err
		}
	}

	delete(rec, "id")
	delete(rec, "createdAt")
	delete(rec, "updatedAt")

	for _, field := range ct.def.JSONFields {
		if raw, ok := rec[field].(string); ok && raw != "" {
			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
				rec[field] = decoded
			}
		}
	}

	return rec, nil
}

// graftUploads replaces asset fields with freshly uploaded remote handles.
// On update, a new cover deletes the asset it replaces first.
func (ct *Controller) graftUploads(c fiber.Ctx, rec store.Record, existing store.Record) error {
	if ct.def.CoverField != "" {
		if fh, err := c.FormFile(ct.def.CoverField); err == nil && fh != nil {
			if existing != nil {
				ct.deleteAssetID(c.Context(), ct.priorAssetID(existing))
			}
			asset, err := ct.uploadFile(c.Context(), fh)
			if err != nil {
				return err
			}
			rec[ct.def.CoverField] = map[string]any{"url": asset.URL, "publicId": asset.PublicID}
		}
	}

	if ct.def.GalleryField != "" {
		form, err := c.MultipartForm()
		if err == nil && form != nil {
			files := form.File[ct.def.GalleryField]
			if len(files) > 0 {
				gallery := make([]any, 0, len(files))
				for _, fh := range files {
					asset, err := ct.uploadFile(c.Context(), fh)
					if err != nil {
						return err
					}
					gallery = append(gallery, map[string]any{"url": asset.URL, "publicId": asset.PublicID})
				}
				rec[ct.def.GalleryField] = gallery
			}
		}
	}

	return nil
}

func (ct *Controller) uploadFile(ctx context.Context, fh *multipart.FileHeader) (storage.Asset, error) {
	file, err := fh.Open()
	if err != nil {
		return storage.Asset{}, fmt.Errorf("error opening upload: %w", err)
	}
	defer file.Close()

	name := ct.def.Name + "/" + uuid.NewString() + filepath.Ext(fh.Filename)
	return ct.uploader.Upload(ctx, name, file, fh.Size, fh.Header.Get("Content-Type"))
}

func (ct *Controller) deleteRemoteAssets(ctx context.Context, rec store.Record) {
	ct.deleteAssetID(ctx, ct.priorAssetID(rec))

	if ct.def.GalleryField != "" {
		if gallery, ok := asSlice(rec[ct.def.GalleryField]); ok {
			for _, item := range gallery {
				if asset, ok := asMap(item); ok {
					publicID, _ := asset["publicId"].(string)
					ct.deleteAssetID(ctx, publicID)
				}
			}
		}
	}
}

// priorAssetID locates the replaceable asset on a stored record, through
// the definition's hook when the record keeps its handle in a custom
// shape (media stores it flattened).
func (ct *Controller) priorAssetID(rec store.Record) string {
	if ct.def.PriorAsset != nil {
		return ct.def.PriorAsset(rec)
	}
	if ct.def.CoverField == "" {
		return ""
	}
	cover, ok := asMap(rec[ct.def.CoverField])
	if !ok {
		return ""
	}
	publicID, _ := cover["publicId"].(string)
	return publicID
}

func (ct *Controller) deleteAssetID(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := ct.uploader.Delete(ctx, publicID); err != nil {
		log.Printf("Warning: failed to delete remote asset %s: %v", publicID, err)
	}
}
