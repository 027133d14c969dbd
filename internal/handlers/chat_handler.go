package handlers

import (
	"log"

	"portfolio-backend/internal/chatbot"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
)

type ChatHandler struct {
	responder *chatbot.Responder
}

func NewChatHandler(responder *chatbot.Responder) *ChatHandler {
	return &ChatHandler{responder: responder}
}

func (h *ChatHandler) RegisterRoutes(app *fiber.App) {
	group := app.Group("/chatbot")
	group.Post("/message", h.Message)
	group.Get("/history/:conversationId", h.History)
}

// Message always answers 200. A malformed body is treated as an empty
// question rather than a client error; the widget never sees a failure.
func (h *ChatHandler) Message(c fiber.Ctx) error {
	var request struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversationId"`
		Language       string `json:"language"`
	}

	if err := c.Bind().Body(&request); err != nil {
		log.Printf("Warning: unreadable chat message body: %v", err)
	}

	reply := h.responder.Respond(c.Context(), request.Message, request.ConversationID, request.Language)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"response":       reply.Response,
		"conversationId": reply.ConversationID,
	})
}

func (h *ChatHandler) History(c fiber.Ctx) error {
	messages, err := h.responder.History(c.Context(), c.Params("conversationId"))
	if err != nil {
		log.Printf("Failed to load conversation %s: %v", c.Params("conversationId"), err)
		return utils.InternalErrorResponse(c, "Failed to retrieve conversation", err)
	}
	return utils.SuccessResponse(c, "", fiber.Map{
		"messages": messages,
	})
}
