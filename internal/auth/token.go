// Package auth implements token issuance and validation. Tokens are
// HS256 JWTs signed with a key derived from the server secret and a
// per-session key the client supplies as the "key" query parameter, so
// a token is only verifiable within the session it was issued for.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken means the token (or its verification key) could
	// not be decoded at all. Rejected before any business logic runs.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature means the token decoded but its signature did
	// not verify. Unlike a malformed token this signals tampering and
	// is logged at higher severity by callers.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired means the token verified but its expiry is in the
	// past. Clients may transparently re-authenticate.
	ErrTokenExpired = errors.New("token expired")
)

const sessionKeyParam = "key"

// DeriveKey binds the server secret to a caller session key. The same
// derivation runs at issuance and verification, so a token only
// validates when the client presents the key it was issued under.
func DeriveKey(secret, sessionKey string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionKey))
	return mac.Sum(nil)
}

// IssueToken signs a token binding the user id and expiry.
func IssueToken(userID int, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseTokenSubject verifies the token against key and returns the
// user id from the subject claim. Failures map onto the sentinel
// taxonomy above; expiry is checked before signature classification so
// an expired token is never reported as tampered.
func ParseTokenSubject(tokenString string, key []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, ErrInvalidSignature
		default:
			return 0, ErrMalformedToken
		}
	}
	if !token.Valid {
		return 0, ErrMalformedToken
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrMalformedToken
	}
	return userID, nil
}

// BearerToken extracts the credential from the Authorization header.
// The value must be exactly two space-separated parts; anything else
// means no credentials were supplied, which is not an error.
func BearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", false
	}
	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionKey extracts the per-session verification key from the
// request query.
func SessionKey(r *http.Request) (string, bool) {
	key := r.URL.Query().Get(sessionKeyParam)
	if key == "" {
		return "", false
	}
	return key, true
}
