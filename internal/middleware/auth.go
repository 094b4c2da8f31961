package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reserva/internal/auth"
)

const bearerPrefix = "Bearer "

var (
	// ErrMissingAuthHeader means the request carried no Authorization header.
	ErrMissingAuthHeader = errors.New("missing authorization header")

	// ErrMalformedAuthHeader means the header was present but not a
	// well-formed bearer token.
	ErrMalformedAuthHeader = errors.New("malformed authorization header")
)

// BearerToken extracts the token from a raw Authorization header value. The
// "Bearer " prefix is required; surrounding whitespace is stripped.
func BearerToken(headerValue string) (string, error) {
	if headerValue == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return "", ErrMalformedAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	if token == "" {
		return "", ErrMalformedAuthHeader
	}
	return token, nil
}

// RequireAuth validates the bearer session token and populates AuthContext.
// Missing or malformed headers are 400; tokens that fail verification are
// a generic 401.
func RequireAuth(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			user, err := sessions.Authorize(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			ac := auth.AuthContext{
				UserID: user.ID,
				NetID:  user.NetID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
