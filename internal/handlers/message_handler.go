package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuslink/chatcore/internal/repositories"
	"github.com/campuslink/chatcore/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messages *services.MessageService
	chatList *services.ChatListService
}

func NewMessageHandler(messages *services.MessageService, chatList *services.ChatListService) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		chatList: chatList,
	}
}

type sendMessageRequest struct {
	SenderID      *uuid.UUID `json:"sender_id,omitempty"`
	RecipientID   uuid.UUID  `json:"recipient_id"`
	Content       string     `json:"content,omitempty"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
}

// Send creates a message from the authenticated user. The sender always comes
// from the session token; a body that claims a different sender is refused.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SenderID != nil && *req.SenderID != claims.UserID {
		writeError(w, http.StatusForbidden, "sender does not match session")
		return
	}

	message, err := h.messages.Send(r.Context(), services.SendMessageCommand{
		SenderID:      claims.UserID,
		RecipientID:   req.RecipientID,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
	})
	if errors.Is(err, services.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

// Conversation returns the full decrypted history between the authenticated
// user and the peer in the path, ascending by creation time.
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "peerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	messages, err := h.messages.Conversation(r.Context(), claims.UserID, peerID)
	if errors.Is(err, services.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch conversation")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// MarkRead flips the read flag on one message and returns the updated record.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	message, err := h.messages.MarkRead(r.Context(), messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark message read")
		return
	}

	writeJSON(w, http.StatusOK, message)
}

// ChatList returns the aggregated conversation list for the session user.
func (h *MessageHandler) ChatList(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	previews, err := h.chatList.ChatList(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build chat list")
		return
	}

	writeJSON(w, http.StatusOK, previews)
}
