package auth

import (
	"context"
	"net/http"

	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/utils"
)

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Guard holds the role predicates. Guards assume Middleware already ran: a
// request with no identity on the context fails as unauthenticated, a known
// identity with the wrong role as forbidden.
type Guard struct {
	Users UserStore
}

func NewGuard(users UserStore) *Guard {
	return &Guard{Users: users}
}

func (g *Guard) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := CallerEmail(r.Context())
			if email == "" {
				utils.Fail(w, errs.New(errs.Unauthenticated, "authentication required"))
				return
			}

			user, err := g.Users.GetUserByEmail(r.Context(), email)
			if err != nil {
				utils.Fail(w, errs.New(errs.Forbidden, "forbidden"))
				return
			}
			if user.Role != role {
				utils.Fail(w, errs.New(errs.Forbidden, "forbidden"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) RequireAdmin() func(http.Handler) http.Handler {
	return g.requireRole(models.RoleAdmin)
}

func (g *Guard) RequireVendor() func(http.Handler) http.Handler {
	return g.requireRole(models.RoleVendor)
}
