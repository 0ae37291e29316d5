package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/parley/parley-go/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// UnauthenticatedMessage is the only body a rejected caller ever sees.
const UnauthenticatedMessage = "could not validate credentials"

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate returns middleware that requires a valid Bearer token in the
// Authorization header and stores the caller's identity in the request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := bearerToken(r.Header.Get("Authorization"))
			if !found {
				slog.Debug("rejecting request", "reason", "missing or malformed authorization header", "path", r.URL.Path)
				WriteUnauthorized(w)
				return
			}

			identity, err := auth.Validate(r.Context(), token)
			if err != nil {
				slog.Debug("rejecting request", "reason", err.Error(), "path", r.URL.Path)
				WriteUnauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the credentials of a Bearer Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// WriteUnauthorized writes the uniform 401 response.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, UnauthenticatedMessage)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
