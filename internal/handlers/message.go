package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatrelay/apiserver/internal/rules"
	"github.com/chatrelay/apiserver/internal/services"
	"github.com/chatrelay/apiserver/internal/store"
	"github.com/chatrelay/apiserver/types"
)

// MessageHandler provides HTTP handlers for messages.
type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRouter registers message routes on the given router.
func MessageRouter(r chi.Router, handler *MessageHandler) {
	r.Post("/upload_message", handler.Upload)
	r.Route("/{messageID}", func(r chi.Router) {
		r.Delete("/", handler.Delete)
		r.Post("/recover", handler.Recover)
	})
}

type UploadMessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is a message row with its owner referenced by id.
type MessageResponse struct {
	ID              int       `json:"id"`
	Text            string    `json:"text"`
	Owner           int       `json:"owner"`
	DatetimeCreated time.Time `json:"datetime_created"`
	IsDeleted       bool      `json:"is_deleted"`
}

// MessageDetailResponse is a message with its owner embedded.
type MessageDetailResponse struct {
	ID              int          `json:"id"`
	Text            string       `json:"text"`
	Owner           UserResponse `json:"owner"`
	DatetimeCreated time.Time    `json:"datetime_created"`
	IsDeleted       bool         `json:"is_deleted"`
}

func newMessageResponse(message types.Message) MessageResponse {
	return MessageResponse{
		ID:              message.ID,
		Text:            message.Text,
		Owner:           message.OwnerID,
		DatetimeCreated: message.CreatedAt,
		IsDeleted:       message.IsDeleted(),
	}
}

func newMessageDetailResponse(message types.Message, owner types.User) MessageDetailResponse {
	return MessageDetailResponse{
		ID:              message.ID,
		Text:            message.Text,
		Owner:           newUserResponse(owner),
		DatetimeCreated: message.CreatedAt,
		IsDeleted:       message.IsDeleted(),
	}
}

// Upload persists a message for the requester and relays it to their
// linked chat. Requires an active account with a connected chat; the
// relay is fire-and-forget and never delays the response.
func (h *MessageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(
		requester,
		rules.Context{},
		rules.ActiveAccount{},
		rules.LinkedChat{},
	); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var req UploadMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	message, err := h.messageService.Post(r.Context(), *requester, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upload message")
		return
	}

	writeJSON(w, http.StatusOK, newMessageDetailResponse(message, *requester))
}

// Delete soft-deletes a message owned by the requester (staff may
// delete any message).
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messageService.Delete(r.Context(), *requester, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "you cannot delete someone else's message")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete message")
		}
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Detail: "message deleted"})
}

// Recover clears a message's soft-delete mark. Staff only.
func (h *MessageHandler) Recover(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if !requester.IsStaff {
		writeError(w, http.StatusForbidden, "staff access required")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messageService.Recover(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to recover message")
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Detail: "message recovered"})
}

func parseMessageID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}
