package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parley/parley-go/internal/middleware"
	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/service"
)

// ConversationHandler handles HTTP requests for conversations and turns.
type ConversationHandler struct {
	service *service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: svc}
}

// HandleList handles GET /api/conversations requests.
func (h *ConversationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	summaries, err := h.service.List(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleStart handles POST /api/conversations requests.
func (h *ConversationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.StartConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conv, err := h.service.Start(r.Context(), id.UserID, req.FirstMessage)
	if err != nil {
		writeTurnError(w, r, conv, err)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// HandleGet handles GET /api/conversations/{id} requests.
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(r.Context(), id.UserID, convID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// HandleDelete handles DELETE /api/conversations/{id} requests.
func (h *ConversationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id.UserID, convID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeServiceError(w, r, service.ErrConversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Conversation deleted successfully"))
}

// HandleAppend handles POST /api/conversations/{id}/messages requests.
func (h *ConversationHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conv, err := h.service.Append(r.Context(), id.UserID, convID, req.Content)
	if err != nil {
		writeTurnError(w, r, conv, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// HandleStream handles POST /api/conversations/{id}/messages/stream requests.
func (h *ConversationHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sink := newSSEWriter(w)
	err := h.service.Stream(r.Context(), id.UserID, convID, req.Content, sink)
	if err == nil {
		return
	}
	if !sink.started {
		writeServiceError(w, r, err)
		return
	}

	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	slog.Log(r.Context(), level, "stream ended early",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"conversation_id", convID,
		"error", err,
	)
}

// writeTurnError reports a failed turn. When the provider failed after the
// user message was stored, the conversation id is included so clients can retry.
func writeTurnError(w http.ResponseWriter, r *http.Request, conv *model.Conversation, err error) {
	if errors.Is(err, service.ErrUpstream) && conv != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           service.ErrUpstream.Error(),
			"conversation_id": conv.ID,
		})
		return
	}
	writeServiceError(w, r, err)
}
