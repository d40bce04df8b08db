package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk/internal/conversation"
	"github.com/hivedesk/hivedesk/internal/models"
)

// ConversationHandler serves the inbox read surface: conversation listings,
// full threads, and the read/starred flags.
type ConversationHandler struct {
	conversations *conversation.Service
}

func NewConversationHandler(conversations *conversation.Service) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// HandleList returns one page of conversations for a mailbox address.
//
// Query parameters: address (required), page, limit, search, is_read,
// is_starred.
func (h *ConversationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "address is required"})
		return
	}

	query := models.ConversationQuery{
		Search: r.URL.Query().Get("search"),
	}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if v := r.URL.Query().Get("is_read"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "is_read must be a boolean"})
			return
		}
		query.IsRead = &b
	}
	if v := r.URL.Query().Get("is_starred"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "is_starred must be a boolean"})
			return
		}
		query.IsStarred = &b
	}

	page, err := h.conversations.List(r.Context(), teamID, memberID, address, query)
	if err != nil {
		if errors.Is(err, conversation.ErrForbidden) {
			writeJSON(w, http.StatusForbidden, jsonResponse{Error: "address not owned by member"})
			return
		}
		slog.Error("conversations: list failed", "team_id", teamID, "member_id", memberID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleGetChain returns the full ordered thread, after checking the member
// participates in it.
func (h *ConversationHandler) HandleGetChain(w http.ResponseWriter, r *http.Request) {
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
	chainID := chi.URLParam(r, "chainID")

	accessible, err := h.conversations.IsChainAccessible(r.Context(), teamID, memberID, chainID)
	if err != nil {
		slog.Error("conversations: access check failed", "team_id", teamID, "chain_id", chainID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		return
	}
	if !accessible {
		writeJSON(w, http.StatusForbidden, jsonResponse{Error: "chain not accessible"})
		return
	}

	msgs, err := h.conversations.GetChainMessages(r.Context(), chainID)
	if err != nil {
		if errors.Is(err, conversation.ErrChainNotFound) {
			writeJSON(w, http.StatusNotFound, jsonResponse{Error: "chain not found"})
			return
		}
		slog.Error("conversations: get chain failed", "chain_id", chainID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chain_id": chainID,
		"messages": msgs,
	})
}

// HandleMarkRead flags a message as read.
func (h *ConversationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	teamID, ok := int64Param(r, "teamID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid team id"})
		return
	}
	messageID, ok := int64Param(r, "messageID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid message id"})
		return
	}

	if err := h.conversations.MarkRead(r.Context(), teamID, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, jsonResponse{Error: "message not found"})
			return
		}
		slog.Error("conversations: mark read failed", "team_id", teamID, "message_id", messageID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{OK: true})
}

// HandleSetStarred sets or clears the starred flag on a message.
func (h *ConversationHandler) HandleSetStarred(w http.ResponseWriter, r *http.Request) {
	teamID, ok := int64Param(r, "teamID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid team id"})
		return
	}
	messageID, ok := int64Param(r, "messageID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid message id"})
		return
	}

	var req struct {
		Starred bool `json:"starred"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid JSON payload"})
		return
	}

	if err := h.conversations.SetStarred(r.Context(), teamID, messageID, req.Starred); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, jsonResponse{Error: "message not found"})
			return
		}
		slog.Error("conversations: set starred failed", "team_id", teamID, "message_id", messageID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{OK: true})
}
