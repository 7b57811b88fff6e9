package handlers

import (
	"errors"
	"net/http"

	"github.com/chatrelay/apiserver/internal/auth"
	"github.com/chatrelay/apiserver/internal/logging"
	"github.com/chatrelay/apiserver/internal/services"
	"github.com/chatrelay/apiserver/internal/store"
)

// Authenticator resolves the requesting account from the bearer header
// and the per-session key before any handler runs.
type Authenticator struct {
	userService *services.UserService
	secret      string
	log         logging.Logger
}

func NewAuthenticator(userService *services.UserService, secret string, log logging.Logger) *Authenticator {
	return &Authenticator{
		userService: userService,
		secret:      secret,
		log:         log,
	}
}

// Middleware authenticates the request. No credentials means the
// request proceeds anonymously and permission rules decide; presented
// credentials that fail are rejected here, before business logic. The
// account's current state, not the token, is the source of truth: the
// identity is re-read from the store on every request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := auth.BearerToken(r)
		if !ok {
			next.ServeHTTP(w, r.WithContext(withRequester(r.Context(), nil)))
			return
		}

		// The verification key must resolve before any signature
		// check; an unresolvable key is a malformed credential.
		sessionKey, ok := auth.SessionKey(r)
		if !ok {
			a.log.Warn(r.Context(), "authorization header present but no session key supplied")
			writeError(w, http.StatusForbidden, "could not resolve token verification key")
			return
		}

		userID, err := auth.ParseTokenSubject(tokenString, auth.DeriveKey(a.secret, sessionKey))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidSignature):
				// A bad signature is tampering, not a client mistake.
				a.log.Error(r.Context(), "token signature verification failed", "remote", r.RemoteAddr)
				writeError(w, http.StatusForbidden, "invalid token signature")
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, http.StatusForbidden, "token expired")
			default:
				a.log.Warn(r.Context(), "malformed token rejected", "remote", r.RemoteAddr)
				writeError(w, http.StatusForbidden, "malformed credentials")
			}
			return
		}

		user, err := a.userService.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusForbidden, "unknown token subject")
				return
			}
			a.log.Error(r.Context(), "failed to load requester", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
			return
		}

		next.ServeHTTP(w, r.WithContext(withRequester(r.Context(), &user)))
	})
}
