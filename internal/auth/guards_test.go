package auth_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/models"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func protectedChain(tokens *auth.TokenService, guard func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if guard != nil {
		handler = guard(handler)
	}
	return auth.Middleware(tokens)(handler)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	handler := protectedChain(tokens, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A malformed header fails the same way
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	expired := auth.NewTokenService("test-secret", -time.Minute)
	token, err := expired.Issue("alice@example.com")
	assert.NoError(t, err)

	handler := protectedChain(auth.NewTokenService("test-secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewarePassesValidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	token, err := tokens.Issue("alice@example.com")
	assert.NoError(t, err)

	var seen string
	handler := auth.Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.CallerEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", seen)
}

func TestGuardRoles(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	store := &stubUserStore{users: map[string]*models.User{
		"admin@example.com":  {Email: "admin@example.com", Role: models.RoleAdmin},
		"vendor@example.com": {Email: "vendor@example.com", Role: models.RoleVendor},
		"rider@example.com":  {Email: "rider@example.com", Role: models.RoleUser},
	}}
	guard := auth.NewGuard(store)

	cases := []struct {
		name     string
		email    string
		guard    func(http.Handler) http.Handler
		wantCode int
	}{
		{"admin passes admin guard", "admin@example.com", guard.RequireAdmin(), http.StatusOK},
		{"vendor fails admin guard", "vendor@example.com", guard.RequireAdmin(), http.StatusForbidden},
		{"vendor passes vendor guard", "vendor@example.com", guard.RequireVendor(), http.StatusOK},
		{"plain user fails vendor guard", "rider@example.com", guard.RequireVendor(), http.StatusForbidden},
		{"unknown user fails", "ghost@example.com", guard.RequireVendor(), http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := tokens.Issue(tc.email)
			assert.NoError(t, err)

			handler := protectedChain(tokens, tc.guard)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
