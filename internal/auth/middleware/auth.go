package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/middlewares"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// TokenCookieName is the cookie that carries the session token
const TokenCookieName = "token"

type contextKey string

const userKey contextKey = "user"

// TokenValidator resolves a session token to a user ID
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// UserFinder loads the user a session token points to
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware requires a valid session token that resolves to an existing
// user and stores that user in the request context
func AuthMiddleware(tokens TokenValidator, users UserFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				middlewares.WriteJSONError(w, http.StatusUnauthorized, "Login first to access this resource")
				return
			}

			userID, err := tokens.ValidateToken(token)
			if err != nil {
				middlewares.WriteJSONError(w, http.StatusUnauthorized, "Login first to access this resource")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if apperrors.Is(err, apperrors.CodeNotFound) {
					middlewares.WriteJSONError(w, http.StatusUnauthorized, "Login first to access this resource")
					return
				}
				logger.Error("failed to load authenticated user",
					middlewares.RequestIDField(r.Context()),
					zap.String("user_id", userID),
					zap.Error(err),
				)
				status, message := apperrors.HTTPStatus(err)
				middlewares.WriteJSONError(w, status, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// extractToken reads the session cookie first and falls back to a bearer header
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated user from context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
