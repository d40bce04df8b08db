package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hivedesk/hivedesk/internal/inbound"
	"github.com/hivedesk/hivedesk/internal/outbound"
)

// OutboundHandler accepts member-composed outbound messages.
type OutboundHandler struct {
	outbound *outbound.Service
}

func NewOutboundHandler(outboundService *outbound.Service) *OutboundHandler {
	return &OutboundHandler{outbound: outboundService}
}

func (h *OutboundHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	teamID, ok := int64Param(r, "teamID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid team id"})
		return
	}
	memberID, ok := int64Param(r, "memberID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid member id"})
		return
	}

	var input outbound.SendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid JSON payload"})
		return
	}

	msg, err := h.outbound.Send(r.Context(), teamID, memberID, input)
	if err != nil {
		switch {
		case errors.Is(err, outbound.ErrValidation):
			writeJSON(w, http.StatusBadRequest, jsonResponse{Error: err.Error()})
		case errors.Is(err, outbound.ErrForbidden):
			writeJSON(w, http.StatusForbidden, jsonResponse{Error: "sender address not owned by member"})
		case errors.Is(err, outbound.ErrOutboundDisabled), errors.Is(err, inbound.ErrIntegrationInactive):
			writeJSON(w, http.StatusForbidden, jsonResponse{Error: err.Error()})
		case errors.Is(err, inbound.ErrIntegrationNotFound):
			writeJSON(w, http.StatusNotFound, jsonResponse{Error: "integration not found"})
		default:
			slog.Error("outbound: send failed", "team_id", teamID, "member_id", memberID, "error", err)
			writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
