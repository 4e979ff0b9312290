package handler

import (
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/preferences"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// PreferencesHandler handles AI preference and onboarding endpoints.
type PreferencesHandler struct {
	service *preferences.Service
	logger  *logger.Logger
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(svc *preferences.Service, log *logger.Logger) *PreferencesHandler {
	return &PreferencesHandler{service: svc, logger: log}
}

type preferencesResponse struct {
	*model.AiPreferences
	EffectiveToneOfVoice string `json:"effectiveToneOfVoice"`
}

func newPreferencesResponse(userID string, prefs *model.AiPreferences) preferencesResponse {
	if prefs == nil {
		prefs = &model.AiPreferences{UserID: userID, ExampleMessages: []string{}}
	}
	return preferencesResponse{
		AiPreferences:        prefs,
		EffectiveToneOfVoice: model.EffectiveToneOfVoice(prefs),
	}
}

// Get handles GET /api/v1/ai-preferences
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	prefs, err := h.service.Get(ctx, userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newPreferencesResponse(userID, prefs))
}

// Update handles PUT /api/v1/ai-preferences
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.AiPreferencesInput
	if !decodeJSON(w, r, &req) {
		return
	}

	prefs, err := h.service.Upsert(ctx, userID, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newPreferencesResponse(userID, prefs))
}

// OnboardingState handles GET /api/v1/onboarding/state
func (h *PreferencesHandler) OnboardingState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.service.State(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// CompleteOnboarding handles POST /api/v1/onboarding/complete
func (h *PreferencesHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	prefs, err := h.service.CompleteOnboarding(ctx, userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newPreferencesResponse(userID, prefs))
}
