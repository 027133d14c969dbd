package handlers

import (
	"errors"
	"log"

	"portfolio-backend/internal/events"
	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
)

type ContactHandler struct {
	store          store.Store
	eventPublisher events.Publisher
}

func NewContactHandler(st store.Store, eventPublisher events.Publisher) *ContactHandler {
	return &ContactHandler{store: st, eventPublisher: eventPublisher}
}

func (h *ContactHandler) RegisterRoutes(app *fiber.App, authenticated, adminOnly fiber.Handler) {
	group := app.Group("/contacts")
	group.Post("/", h.Create)
	group.Get("/", h.List, authenticated, adminOnly)
	group.Delete("/:id", h.Delete, authenticated, adminOnly)
}

// Create is the public contact form endpoint. Mail delivery is handled by
// a broker consumer listening on contact.created, not here.
func (h *ContactHandler) Create(c fiber.Ctx) error {
	var request struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if request.Name == "" || request.Email == "" || request.Message == "" {
		return utils.BadRequestResponse(c, "Name, email and message are required")
	}

	created, err := h.store.Create(c.Context(), "contacts", store.Record{
		"name":    request.Name,
		"email":   request.Email,
		"subject": request.Subject,
		"message": request.Message,
		"status":  "new",
	})
	if err != nil {
		log.Printf("Failed to create contact: %v", err)
		return utils.InternalErrorResponse(c, "Failed to send message", err)
	}

	if h.eventPublisher != nil {
		err := h.eventPublisher.Publish(&events.Event{
			EventType: events.ContactCreated,
			Payload: map[string]any{
				"contactId": created.ID(),
				"name":      request.Name,
				"email":     request.Email,
				"subject":   request.Subject,
			},
		})
		if err != nil {
			log.Printf("Warning: failed to publish contact event: %v", err)
		}
	}

	return utils.CreatedResponse(c, "Message sent successfully", created)
}

func (h *ContactHandler) List(c fiber.Ctx) error {
	records, err := h.store.List(c.Context(), "contacts")
	if err != nil {
		log.Printf("Failed to list contacts: %v", err)
		return utils.InternalErrorResponse(c, "Failed to retrieve contacts", err)
	}
	return utils.SuccessResponse(c, "", records)
}

func (h *ContactHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.Remove(c.Context(), "contacts", id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Contact not found")
		}
		log.Printf("Failed to delete contact %s: %v", id, err)
		return utils.InternalErrorResponse(c, "Failed to delete contact", err)
	}

	return utils.SuccessResponse(c, "Contact deleted successfully", nil)
}
