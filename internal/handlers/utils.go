package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chatrelay/apiserver/types"
)

type contextKey string

const contextRequesterKey contextKey = "requester"

// requesterFromContext returns the authenticated account, or nil for
// an anonymous caller.
func requesterFromContext(ctx context.Context) *types.User {
	requester, _ := ctx.Value(contextRequesterKey).(*types.User)
	return requester
}

func withRequester(ctx context.Context, requester *types.User) context.Context {
	return context.WithValue(ctx, contextRequesterKey, requester)
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetailResponse carries a human-readable outcome message.
type DetailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
