package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatrelay/apiserver/internal/auth"
	"github.com/chatrelay/apiserver/internal/rules"
	"github.com/chatrelay/apiserver/internal/services"
	"github.com/chatrelay/apiserver/internal/store"
	"github.com/chatrelay/apiserver/types"
)

// UserHandler provides registration, login and account lifecycle
// endpoints.
type UserHandler struct {
	userService    *services.UserService
	messageService *services.MessageService
	secret         string
	tokenTTL       time.Duration
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(
	userService *services.UserService,
	messageService *services.MessageService,
	secret string,
	tokenLifetimeDays int,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		messageService: messageService,
		secret:         secret,
		tokenTTL:       time.Duration(tokenLifetimeDays) * 24 * time.Hour,
	}
}

// UserRouter registers user routes on the given router. The
// authentication middleware is expected to run for the whole subtree.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Post("/register_user", handler.Register)
	r.Post("/login_user", handler.Login)
	r.Get("/get_token", handler.GetToken)
	r.Get("/messages", handler.Messages)
	r.Get("/telegram_connect", handler.ConnectTelegram)
	r.Post("/recover", handler.Recover)
	r.Delete("/delete_user", handler.Delete)
}

type RegisterRequest struct {
	Login       string `json:"login"`
	FirstName   string `json:"first_name"`
	Password    string `json:"password"`
	IsSuperuser bool   `json:"is_superuser"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UserResponse is the serialized identity returned on login and
// registration.
type UserResponse struct {
	ID              int       `json:"id"`
	Login           string    `json:"login"`
	FirstName       string    `json:"first_name"`
	IsActive        bool      `json:"is_active"`
	IsStaff         bool      `json:"is_staff"`
	DatetimeCreated time.Time `json:"datetime_created"`
	IsDeleted       bool      `json:"is_deleted"`
}

// AuthResponse is a UserResponse plus the issued access token.
type AuthResponse struct {
	UserResponse
	Access string `json:"access"`
}

// TokenResponse carries a reissued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

func newUserResponse(user types.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Login:           user.Login,
		FirstName:       user.FirstName,
		IsActive:        user.IsActive,
		IsStaff:         user.IsStaff,
		DatetimeCreated: user.CreatedAt,
		IsDeleted:       user.IsDeleted(),
	}
}

// Register creates a new account and returns it with a fresh token.
// Anonymous callers are allowed; creating a superuser requires the
// requester to be one already.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}
	if req.FirstName == "" {
		writeError(w, http.StatusBadRequest, "first name is required")
		return
	}
	if len(req.Login) > types.MaxLoginLen {
		writeError(w, http.StatusBadRequest, "login is too long")
		return
	}

	sessionKey, ok := auth.SessionKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(
		requester,
		rules.Context{WantsSuperuser: req.IsSuperuser},
		rules.SuperuserElevation{},
	); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req.Login, req.FirstName, req.Password, req.IsSuperuser)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "login already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := auth.IssueToken(user.ID, auth.DeriveKey(h.secret, sessionKey), h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{UserResponse: newUserResponse(user), Access: token})
}

// Login verifies credentials and returns the account with a fresh
// token. The three failure states stay distinct: unknown login (404),
// wrong password (403), deleted account (403).
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	sessionKey, ok := auth.SessionKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "user with login '"+req.Login+"' not found")
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusForbidden, "you entered the wrong password")
		case errors.Is(err, services.ErrAccountDeleted):
			writeError(w, http.StatusForbidden, "sorry, your account is deleted")
		default:
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	token, err := auth.IssueToken(user.ID, auth.DeriveKey(h.secret, sessionKey), h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{UserResponse: newUserResponse(user), Access: token})
}

// GetToken reissues a token for the current session key.
func (h *UserHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	sessionKey, ok := auth.SessionKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	token, err := auth.IssueToken(requester.ID, auth.DeriveKey(h.secret, sessionKey), h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Messages returns the requester's non-deleted messages.
func (h *UserHandler) Messages(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	messages, err := h.messageService.ListForOwner(r.Context(), requester.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	items := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, newMessageResponse(message))
	}
	writeJSON(w, http.StatusOK, items)
}

// ConnectTelegram links the requester's chat identity. The field is
// write-once: a second connect attempt is rejected and the first value
// is retained.
func (h *UserHandler) ConnectTelegram(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	if requester.HasTelegram() {
		writeError(w, http.StatusForbidden, "your telegram is already connected")
		return
	}

	chatID, err := strconv.ParseInt(r.URL.Query().Get("chat_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "the chat identifier must be provided as a number")
		return
	}

	if err := h.userService.LinkTelegram(r.Context(), requester.ID, chatID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusForbidden, "your telegram is already connected")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to connect telegram")
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Detail: "chat connected successfully"})
}

// Recover undeletes the requester's account. The active-account rule
// is deliberately not applied: a soft-deleted account is the expected
// caller. Recovering an active account is a no-op.
func (h *UserHandler) Recover(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if requester == nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	if err := h.userService.Recover(r.Context(), requester.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to recover account")
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Detail: "account recovered"})
}

// Delete soft-deletes the requester's account. The login stays
// reserved and the account can later be recovered.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromContext(r.Context())
	if err := rules.Evaluate(requester, rules.Context{}, rules.ActiveAccount{}); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), requester.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Detail: "account deleted"})
}
