package middleware

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hivedesk/hivedesk/internal/store"
)

// TeamAPIKey authenticates API requests with the team's integration API key,
// supplied as a bearer token and checked against the stored bcrypt hash.
// Session handling for human users lives in the platform gateway; this
// service only sees service-to-service calls.
func TeamAPIKey(integrations store.IntegrationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid team id")
				return
			}

			key, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			integration, err := integrations.GetIntegrationByTeamID(r.Context(), teamID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				slog.Error("auth: failed to load integration", "team_id", teamID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if bcrypt.CompareHashAndPassword([]byte(integration.APIKeyHash), []byte(key)) != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(headerValue string) (string, bool) {
	headerValue = strings.TrimSpace(headerValue)
	const prefix = "Bearer "
	if !strings.HasPrefix(headerValue, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, prefix))
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
