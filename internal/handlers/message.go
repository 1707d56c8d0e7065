package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

// MessageHandler provides HTTP handlers for messages.
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler constructs a handler with the provided service.
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRouter registers message routes on the given router. Every route
// requires a valid token; ownership checks happen per handler because they
// depend on the loaded message.
func MessageRouter(r chi.Router, messageService *services.MessageService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewMessageHandler(messageService)

	r.Use(authMiddleware)
	r.Post("/", handler.SendMessage)
	r.Route("/{messageID}", func(r chi.Router) {
		r.Get("/", handler.GetMessage)
		r.Post("/read", handler.MarkMessageRead)
	})
}

// SendMessage stores a new message from the authenticated user.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	from, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.ToUsername = strings.TrimSpace(req.ToUsername)
	if req.ToUsername == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	msg, err := h.messageService.Send(r.Context(), from, req.ToUsername, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRecipient) || errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown recipient")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, MessageCreatedResponse{Message: msg})
}

// GetMessage returns message detail to its sender or recipient.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	currentUser, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}

	if currentUser != msg.FromUser.Username && currentUser != msg.ToUser.Username {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, MessageDetailResponse{Message: msg})
}

// MarkMessageRead stamps a message read. Only the recipient may do this;
// repeated calls re-confirm the original timestamp.
func (h *MessageHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	currentUser, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}

	if currentUser != msg.ToUser.Username {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	receipt, err := h.messageService.MarkRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to mark message read")
		return
	}

	writeJSON(w, http.StatusOK, MessageReadResponse{Message: receipt})
}

type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// MessageDetailResponse is the message detail payload with nested profiles.
type MessageDetailResponse struct {
	Message types.MessageDetail `json:"message"`
}

// MessageCreatedResponse is the send-message payload.
type MessageCreatedResponse struct {
	Message types.Message `json:"message"`
}

// MessageReadResponse is the mark-read payload.
type MessageReadResponse struct {
	Message types.MessageReceipt `json:"message"`
}

func parseMessageID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}
