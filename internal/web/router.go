package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hivedesk/hivedesk/internal/ratelimit"
	"github.com/hivedesk/hivedesk/internal/store"
	"github.com/hivedesk/hivedesk/internal/web/handlers"
	"github.com/hivedesk/hivedesk/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	WebhookHandler      *handlers.WebhookHandler
	ConversationHandler *handlers.ConversationHandler
	OutboundHandler     *handlers.OutboundHandler
	Integrations        store.IntegrationStore
	Limiter             *ratelimit.Limiter
}

// NewRouter wires all routes into a Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Provider webhook: authenticated by HMAC signature inside the service,
	// rate limited per team.
	r.Group(func(r chi.Router) {
		r.Use(middleware.WebhookRateLimit(deps.Limiter))

		r.Post("/webhooks/mailgun/{teamID}", deps.WebhookHandler.HandleInbound)
	})

	// Team API: authenticated with the integration API key.
	r.Route("/api/v1/teams/{teamID}", func(r chi.Router) {
		r.Use(middleware.TeamAPIKey(deps.Integrations))

		r.Get("/members/{memberID}/conversations", deps.ConversationHandler.HandleList)
		r.Get("/members/{memberID}/chains/{chainID}", deps.ConversationHandler.HandleGetChain)
		r.Post("/members/{memberID}/messages", deps.OutboundHandler.HandleSend)

		r.Post("/messages/{messageID}/read", deps.ConversationHandler.HandleMarkRead)
		r.Put("/messages/{messageID}/starred", deps.ConversationHandler.HandleSetStarred)
	})

	return r
}
