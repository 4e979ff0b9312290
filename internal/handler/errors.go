package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/enrichment"
	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/preferences"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

const msgInsufficientCredits = "insufficient credits"

// respondError maps domain errors to HTTP responses. Unknown errors are
// logged and reported as 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var enrichErr *enrichment.Error

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, service.ErrConversationStopped):
		writeError(w, http.StatusConflict, "conversation is stopped")
	case errors.Is(err, preferences.ErrTooManyExampleMessages):
		writeFieldErrors(w, map[string]string{"exampleMessages": err.Error()})
	case errors.Is(err, service.ErrPreviewUnavailable):
		writeError(w, http.StatusServiceUnavailable, "draft preview is not available")
	case errors.Is(err, enrichment.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "LinkedIn enrichment is not available")
	case errors.As(err, &enrichErr):
		writeJSON(w, enrichmentStatus(enrichErr.Code), map[string]string{
			"error": enrichErr.Message,
			"code":  string(enrichErr.Code),
		})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		log.Debug("request canceled", zap.String("path", r.URL.Path))
	default:
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("user_id", middleware.GetUserID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// enrichmentStatus reports a malformed URL as 400 and every other
// enrichment failure as 422.
func enrichmentStatus(code enrichment.ErrorCode) int {
	if code == enrichment.CodeInvalidURL {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
