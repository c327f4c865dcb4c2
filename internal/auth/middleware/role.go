package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/shopit/backend/internal/middlewares"
	"github.com/shopit/backend/internal/models"
)

// RoleMiddleware only lets through users whose role is one of roles.
// It must run after AuthMiddleware.
func RoleMiddleware(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				middlewares.WriteJSONError(w, http.StatusUnauthorized, "Login first to access this resource")
				return
			}

			if !slices.Contains(roles, user.Role) {
				middlewares.WriteJSONError(w, http.StatusForbidden,
					fmt.Sprintf("Role (%s) is not allowed to access this resource", user.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
