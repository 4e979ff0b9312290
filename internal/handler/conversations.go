// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/v1/conversations.
// Out of credits still creates the conversation and answers 402 with it.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Start(ctx, userID, &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if resp.FirstMessage == nil {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":        msgInsufficientCredits,
			"conversation": model.NewConversationView(resp.Conversation),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"conversation": model.NewConversationView(resp.Conversation),
		"firstMessage": resp.FirstMessage,
	})
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	conv, err := h.service.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewConversationView(conv))
}
