package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for user management by administrators
type AdminService interface {
	// Method AllUsers returns every user.
	AllUsers(ctx context.Context) ([]models.User, error)
	// Method GetUserDetails returns a single user.
	//
	// If there is no user with such ID, a not found error will be returned.
	GetUserDetails(ctx context.Context, userID string) (*models.User, error)
	// Method UpdateUser changes name, email and role of a user.
	UpdateUser(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.User, error)
	// Method DeleteUser removes a user.
	DeleteUser(ctx context.Context, userID string) error
}

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all admin handler routes.
// The router must already enforce the admin role.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Get("/", h.AllUsers)
		r.Get("/{id}", h.GetUserDetails)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// AllUsers handles GET /admin/users
// @Summary List users
// @Description List all users. Requires the admin role.
// @Tags admin
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.UsersResponse "Users"
// @Failure 401 {object} models.MessageResponse "Login first to access this resource"
// @Failure 403 {object} models.MessageResponse "Role is not allowed to access this resource"
// @Router /admin/users [get]
func (h *AdminHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.AllUsers(r.Context())
	if err != nil {
		h.RespondAppError(w, r, "list users", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UsersResponse{Users: users})
}

// GetUserDetails handles GET /admin/users/{id}
// @Summary Get user
// @Description Get a single user by ID. Requires the admin role.
// @Tags admin
// @Produce json
// @Security CookieAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse "User"
// @Failure 404 {object} models.MessageResponse "User not found"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUserDetails(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminService.GetUserDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondAppError(w, r, "get user details", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// UpdateUser handles PUT /admin/users/{id}
// @Summary Update user
// @Description Change name, email and role of a user. Blank fields are left unchanged. Requires the admin role.
// @Tags admin
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRequest true "User fields"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} models.MessageResponse "Invalid input"
// @Failure 404 {object} models.MessageResponse "User not found"
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.RespondAppError(w, r, "update user", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete user
// @Description Delete a user. Assets owned by the user are not removed. Requires the admin role.
// @Tags admin
// @Produce json
// @Security CookieAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.SuccessResponse "Deleted"
// @Failure 404 {object} models.MessageResponse "User not found"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.RespondAppError(w, r, "delete user", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}
