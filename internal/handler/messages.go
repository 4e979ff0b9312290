package handler

import (
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.service.List(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/{id}/messages.
// role=contact records a reply; role=prospect generates the next draft.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Role == model.RoleContact {
		msg, err := h.service.AddContactMessage(ctx, userID, id, req.Content)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
		return
	}

	outcome, err := h.service.GenerateDraft(ctx, userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if outcome == nil {
		writeError(w, http.StatusPaymentRequired, msgInsufficientCredits)
		return
	}

	writeJSON(w, http.StatusCreated, outcome)
}

// Preview handles POST /api/v1/conversations/{id}/messages/preview
func (h *MessageHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	preview, err := h.service.PreviewDraft(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if preview == nil {
		writeError(w, http.StatusPaymentRequired, msgInsufficientCredits)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}
