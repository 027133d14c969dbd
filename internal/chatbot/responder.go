package chatbot

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"portfolio-backend/internal/events"
	"portfolio-backend/internal/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var chatMessages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_chat_messages_total",
		Help: "Total number of chatbot messages handled",
	},
	[]string{"intent"},
)

// Responder answers visitor questions from portfolio content. Each call
// is independent; the only state is the persisted conversation history.
type Responder struct {
	store          store.Store
	eventPublisher events.Publisher
}

func NewResponder(st store.Store, eventPublisher events.Publisher) *Responder {
	return &Responder{store: st, eventPublisher: eventPublisher}
}

// Reply is one answered turn.
type Reply struct {
	Response       string
	ConversationID string
}

// Respond never returns an error to the caller. Any internal failure is
// replaced by a localized apology and a fresh conversation id, because
// the public chat widget must never surface a failure.
func (r *Responder) Respond(ctx context.Context, input, conversationID, language string) Reply {
	if language != "en" {
		language = "fr"
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	input = strings.TrimSpace(input)
	if input == "" {
		chatMessages.WithLabelValues("empty").Inc()
		return Reply{Response: emptyPrompt(language), ConversationID: conversationID}
	}

	snap := loadSnapshot(ctx, r.store)
	bc := deriveContext(snap, language)
	intentName, response := classify(input, bc)
	chatMessages.WithLabelValues(intentName).Inc()

	if err := r.persistTurn(ctx, conversationID, input, response, language); err != nil {
		log.Printf("Failed to persist conversation %s: %v", conversationID, err)
		return Reply{Response: apology(language), ConversationID: uuid.NewString()}
	}

	if r.eventPublisher != nil {
		err := r.eventPublisher.Publish(&events.Event{
			EventType: events.ChatMessage,
			Payload: map[string]any{
				"conversationId": conversationID,
				"intent":         intentName,
				"language":       language,
			},
		})
		if err != nil {
			log.Printf("Warning: failed to publish chat event: %v", err)
		}
	}

	return Reply{Response: response, ConversationID: conversationID}
}

// persistTurn appends the user and bot messages to the conversation by
// rewriting the whole message list. Concurrent turns on the same
// conversation can race and lose a message; accepted.
func (r *Responder) persistTurn(ctx context.Context, conversationID, input, response, language string) error {
	messages := []any{}

	existing, err := r.store.Get(ctx, "chats", conversationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if existing != nil {
		switch list := existing["messages"].(type) {
		case []any:
			messages = list
		case bson.A:
			messages = list
		}
	}

	now := time.Now().UnixMilli()
	messages = append(messages,
		map[string]any{"from": "user", "text": input, "timestamp": now},
		map[string]any{"from": "bot", "text": response, "timestamp": now},
	)

	return r.store.Write(ctx, "chats", conversationID, store.Record{
		"messages": messages,
		"language": language,
	})
}

// History returns the persisted turns of a conversation. An unknown id
// yields an empty list; the widget treats it as a fresh conversation.
func (r *Responder) History(ctx context.Context, conversationID string) ([]any, error) {
	rec, err := r.store.Get(ctx, "chats", conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []any{}, nil
		}
		return nil, err
	}

	switch list := rec["messages"].(type) {
	case []any:
		return list, nil
	case bson.A:
		return list, nil
	default:
		return []any{}, nil
	}
}

func emptyPrompt(language string) string {
	if language == "en" {
		return "Ask me something! For example: what are your skills?"
	}
	return "Posez-moi une question ! Par exemple : quelles sont tes compétences ?"
}

func apology(language string) string {
	if language == "en" {
		return "Sorry, something went wrong on my side. Let's start over, what would you like to know?"
	}
	return "Désolé, un souci est survenu de mon côté. Reprenons, que voulez-vous savoir ?"
}
