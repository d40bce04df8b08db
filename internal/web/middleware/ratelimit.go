package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk/internal/ratelimit"
)

// WebhookRateLimit throttles webhook deliveries per team.
func WebhookRateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(chi.URLParam(r, "teamID")) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
