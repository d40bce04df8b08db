package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk/internal/inbound"
)

// WebhookHandler receives inbound mail callbacks from the email provider.
type WebhookHandler struct {
	inbound      *inbound.Service
	maxBodyBytes int64
}

func NewWebhookHandler(inboundService *inbound.Service, maxBodyBytes int64) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 2 * 1024 * 1024
	}
	return &WebhookHandler{
		inbound:      inboundService,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandleInbound authenticates and ingests one provider delivery. Non-2xx
// responses leave redelivery to the provider's own retry policy.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid team id"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var payload inbound.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, jsonResponse{Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid JSON payload"})
		return
	}

	result, err := h.inbound.ProcessWebhook(r.Context(), teamID, payload)
	if err != nil {
		switch {
		case errors.Is(err, inbound.ErrIntegrationNotFound):
			writeJSON(w, http.StatusNotFound, jsonResponse{Error: "integration not found"})
		case errors.Is(err, inbound.ErrIntegrationInactive), errors.Is(err, inbound.ErrInboundDisabled):
			writeJSON(w, http.StatusForbidden, jsonResponse{Error: err.Error()})
		case errors.Is(err, inbound.ErrInvalidSignature):
			slog.Warn("webhook: signature verification failed", "team_id", teamID)
			writeJSON(w, http.StatusUnauthorized, jsonResponse{Error: "invalid signature"})
		case errors.Is(err, inbound.ErrNoRecipients):
			writeJSON(w, http.StatusBadRequest, jsonResponse{Error: err.Error()})
		default:
			slog.Error("webhook: processing failed", "team_id", teamID, "error", err)
			writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"accepted": result.Accepted,
		"failed":   result.Failed,
	})
}
