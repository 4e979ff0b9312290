package handler

import (
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/billing"
	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// AccountHandler serves the caller's identity and credit balance.
type AccountHandler struct {
	ledger *billing.Ledger
	logger *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(ledger *billing.Ledger, log *logger.Logger) *AccountHandler {
	return &AccountHandler{ledger: ledger, logger: log}
}

// Me handles GET /api/v1/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Credits handles GET /api/v1/credits
func (h *AccountHandler) Credits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	balance, err := h.ledger.Balance(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}
