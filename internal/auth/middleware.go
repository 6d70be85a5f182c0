package auth

import (
	"context"
	"net/http"
	"strings"

	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/utils"
)

type contextKey string

const emailKey contextKey = "caller_email"

// Middleware authenticates the request: it extracts the Bearer token, verifies
// it and puts the caller's email on the context. Authorization (role checks)
// happens afterwards in the guards.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.Fail(w, errs.New(errs.Unauthenticated, "missing Authorization header"))
				return
			}

			// Expect "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.Fail(w, errs.New(errs.Unauthenticated, "invalid Authorization header format"))
				return
			}

			email, err := tokens.Verify(parts[1])
			if err != nil {
				utils.Fail(w, errs.New(errs.Unauthenticated, "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerEmail returns the authenticated email attached by Middleware.
func CallerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}
