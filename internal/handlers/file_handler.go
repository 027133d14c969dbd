package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"log"
	"strconv"

	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fileUploads = promauto.NewCounter(prometheus.CounterOpts{
	Name: "portfolio_file_uploads_total",
	Help: "Total number of file records created",
})

// FileHandler serves downloadable documents (CVs, attestations). The
// payload is stored inline as base64 text rather than in the object
// store, so a record is self-contained and survives bucket wipes.
type FileHandler struct {
	store store.Store
}

func NewFileHandler(st store.Store) *FileHandler {
	return &FileHandler{store: st}
}

func (h *FileHandler) RegisterRoutes(app *fiber.App, authenticated, adminOnly fiber.Handler) {
	group := app.Group("/files")
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Get("/:id/download", h.Download)
	group.Post("/", h.Create, authenticated, adminOnly)
	group.Put("/:id", h.Update, authenticated, adminOnly)
	group.Delete("/:id", h.Delete, authenticated, adminOnly)
}

// List strips the inline payload; a files listing must stay light.
func (h *FileHandler) List(c fiber.Ctx) error {
	records, err := h.store.List(c.Context(), "files")
	if err != nil {
		log.Printf("Failed to list files: %v", err)
		return utils.InternalErrorResponse(c, "Failed to retrieve files", err)
	}
	for _, rec := range records {
		delete(rec, "data")
	}
	return utils.SuccessResponse(c, "", records)
}

func (h *FileHandler) Get(c fiber.Ctx) error {
	rec, err := h.store.Get(c.Context(), "files", c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "File not found")
		}
		log.Printf("Failed to get file %s: %v", c.Params("id"), err)
		return utils.InternalErrorResponse(c, "Failed to retrieve file", err)
	}
	return utils.SuccessResponse(c, "", rec)
}

func (h *FileHandler) Create(c fiber.Ctx) error {
	rec, err := h.parsePayload(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if rec.Str("title") == "" || rec.Str("data") == "" {
		return utils.BadRequestResponse(c, "Title and file payload are required")
	}

	created, err := h.store.Create(c.Context(), "files", rec)
	if err != nil {
		log.Printf("Failed to create file: %v", err)
		return utils.InternalErrorResponse(c, "Failed to create file", err)
	}

	fileUploads.Inc()
	return utils.CreatedResponse(c, "File created successfully", created)
}

func (h *FileHandler) Update(c fiber.Ctx) error {
	id := c.Params("id")

	if _, err := h.store.Get(c.Context(), "files", id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "File not found")
		}
		log.Printf("Failed to get file %s: %v", id, err)
		return utils.InternalErrorResponse(c, "Failed to retrieve file", err)
	}

	rec, err := h.parsePayload(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	updated, err := h.store.Merge(c.Context(), "files", id, rec)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "File not found")
		}
		log.Printf("Failed to update file %s: %v", id, err)
		return utils.InternalErrorResponse(c, "Failed to update file", err)
	}

	return utils.SuccessResponse(c, "File updated successfully", updated)
}

func (h *FileHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.Remove(c.Context(), "files", id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "File not found")
		}
		log.Printf("Failed to delete file %s: %v", id, err)
		return utils.InternalErrorResponse(c, "Failed to delete file", err)
	}

	return utils.SuccessResponse(c, "File deleted successfully", nil)
}

// Download decodes the inline payload and serves raw bytes. The filename
// in the Content-Disposition header must stay ASCII, accents and all
// other unsafe bytes are rewritten.
func (h *FileHandler) Download(c fiber.Ctx) error {
	rec, err := h.store.Get(c.Context(), "files", c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "File not found")
		}
		log.Printf("Failed to get file %s: %v", c.Params("id"), err)
		return utils.InternalErrorResponse(c, "Failed to retrieve file", err)
	}

	payload, err := base64.StdEncoding.DecodeString(rec.Str("data"))
	if err != nil {
		log.Printf("Failed to decode file payload %s: %v", rec.ID(), err)
		return utils.InternalErrorResponse(c, "File payload is corrupted", err)
	}

	filename := rec.Str("filename")
	if filename == "" {
		filename = rec.Str("title")
	}
	filename = utils.SanitizeFilename(filename)

	contentType := rec.Str("mimeType")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(payload)))
	return c.Send(payload)
}

// parsePayload accepts either a JSON body carrying data as base64 text,
// or a multipart form with a "file" part that gets encoded here.
func (h *FileHandler) parsePayload(c fiber.Ctx) (store.Record, error) {
	rec := store.Record{}

	if fh, err := c.FormFile("file"); err == nil && fh != nil {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for key, values := range form.Value {
			if len(values) > 0 {
				rec[key] = values[0]
			}
		}

		file, err := fh.Open()
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}

		rec["data"] = base64.StdEncoding.EncodeToString(raw)
		rec["filename"] = fh.Filename
		rec["mimeType"] = fh.Header.Get("Content-Type")
		rec["size"] = fh.Size
	} else if len(c.Body()) > 0 {
		if err := c.Bind().Body(&rec); err != nil {
			return nil, err
		}
	}

	delete(rec, "id")
	delete(rec, "createdAt")
	delete(rec, "updatedAt")
	return rec, nil
}
