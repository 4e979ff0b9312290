package handler

import (
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// ContactHandler handles contact endpoints.
type ContactHandler struct {
	service *service.ContactService
	logger  *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(svc *service.ContactService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.service.Create(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

// List handles GET /api/v1/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	contact, err := h.service.GetByID(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

// LinkedInPreview handles POST /api/v1/contacts/linkedin-preview
func (h *ContactHandler) LinkedInPreview(w http.ResponseWriter, r *http.Request) {
	var req model.LinkedInURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	res, err := h.service.PreviewLinkedIn(ctx, middleware.GetUserID(ctx), req.URL)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Import handles POST /api/v1/contacts/import.
// Re-importing a profile returns the existing contact with 200.
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.LinkedInURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, created, err := h.service.ImportFromLinkedIn(ctx, middleware.GetUserID(ctx), req.URL)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, contact)
}
