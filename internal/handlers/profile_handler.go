package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopit/backend/internal/auth/middleware"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for the logged in user's own account
type ProfileService interface {
	// Method GetUserProfile returns the current state of the user.
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	// Method UpdatePassword checks the old password, stores the new one and issues a fresh session token.
	//
	// If the old password does not match, the error will be returned and nothing is changed.
	UpdatePassword(ctx context.Context, userID string, req *models.UpdatePasswordRequest) (*models.User, string, error)
	// Method UpdateProfile changes name and email and returns the updated user.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
}

// ProfileHandler handles requests of the authenticated user on their own account
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
	cookie         CookieConfig
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, cookie CookieConfig, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		profileService: profileService,
		cookie:         cookie,
	}
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.GetUserProfile)
		r.Put("/me/update", h.UpdateProfile)
		r.Put("/password/update", h.UpdatePassword)
	})
}

// GetUserProfile handles GET /me
// @Summary Get current user
// @Description Return the authenticated user. Requires authentication.
// @Tags profile
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.UserResponse "Current user"
// @Failure 401 {object} models.MessageResponse "Login first to access this resource"
// @Router /me [get]
func (h *ProfileHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.profileService.GetUserProfile(r.Context(), current.ID)
	if err != nil {
		h.RespondAppError(w, r, "get user profile", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// UpdatePassword handles PUT /password/update
// @Summary Change password
// @Description Change the password of the authenticated user after checking the old one. Issues a fresh session token.
// @Tags profile
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body models.UpdatePasswordRequest true "Old and new password"
// @Success 200 {object} models.AuthResponse "Password updated"
// @Failure 400 {object} models.MessageResponse "Old password is incorrect"
// @Failure 401 {object} models.MessageResponse "Login first to access this resource"
// @Router /password/update [put]
func (h *ProfileHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdatePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.profileService.UpdatePassword(r.Context(), current.ID, &req)
	if err != nil {
		h.RespondAppError(w, r, "update password", err)
		return
	}

	setTokenCookie(w, token, h.cookie, time.Now())
	h.RespondJSON(w, http.StatusOK, models.AuthResponse{Success: true, Token: token, User: user})
}

// UpdateProfile handles PUT /me/update
// @Summary Update current user
// @Description Change name and email of the authenticated user. Blank fields are left unchanged.
// @Tags profile
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} models.MessageResponse "Invalid input"
// @Failure 409 {object} models.MessageResponse "Duplicate email"
// @Router /me/update [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profileService.UpdateProfile(r.Context(), current.ID, &req)
	if err != nil {
		h.RespondAppError(w, r, "update profile", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// currentUser returns the user resolved by the auth middleware
func (h *ProfileHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.Logger.Error("user not found in context")
		h.RespondError(w, http.StatusUnauthorized, "Login first to access this resource")
		return nil, false
	}
	return user, true
}
