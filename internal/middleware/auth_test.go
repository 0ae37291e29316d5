package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley/parley-go/internal/model"
)

type stubAuthenticator struct {
	tokens map[string]model.Identity
	calls  int
}

func (s *stubAuthenticator) Validate(_ context.Context, token string) (model.Identity, error) {
	s.calls++
	id, ok := s.tokens[token]
	if !ok {
		return model.Identity{}, errors.New("invalid token: not found")
	}
	return id, nil
}

func TestAuthenticate(t *testing.T) {
	auth := &stubAuthenticator{tokens: map[string]model.Identity{
		"good": {UserID: 7, Username: "alice"},
	}}

	var seen model.Identity
	handler := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusNoContent},
		{name: "uppercase scheme", header: "BEARER good", wantStatus: http.StatusNoContent},
		{name: "scheme only", header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusUnauthorized {
				return
			}

			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, UnauthenticatedMessage, body["error"])
		})
	}

	assert.Equal(t, model.Identity{UserID: 7, Username: "alice"}, seen)
}

func TestAuthenticateSkipsValidationWithoutToken(t *testing.T) {
	auth := &stubAuthenticator{}
	handler := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, auth.calls)
}

func TestIdentityFromContextMissing(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
}
