package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// Handlers bundles every endpoint group mounted by NewRouter.
type Handlers struct {
	Health        *HealthHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Preferences   *PreferencesHandler
	Contacts      *ContactHandler
	Account       *AccountHandler
}

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	JWTSecret         string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the HTTP routes.
func NewRouter(h Handlers, cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.TrackUser)
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/me", h.Account.Me)
		r.Get("/credits", h.Account.Credits)

		r.Get("/ai-preferences", h.Preferences.Get)
		r.Put("/ai-preferences", h.Preferences.Update)
		r.Get("/onboarding/state", h.Preferences.OnboardingState)
		r.Post("/onboarding/complete", h.Preferences.CompleteOnboarding)

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/", h.Contacts.Create)
			r.Get("/", h.Contacts.List)
			r.Post("/linkedin-preview", h.Contacts.LinkedInPreview)
			r.Post("/import", h.Contacts.Import)
			r.Get("/{id}", h.Contacts.Get)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", h.Conversations.Create)
			r.Get("/", h.Conversations.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Conversations.Get)
				r.Get("/messages", h.Messages.List)
				r.Post("/messages", h.Messages.Send)
				r.Post("/messages/preview", h.Messages.Preview)
			})
		})
	})

	return r
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
