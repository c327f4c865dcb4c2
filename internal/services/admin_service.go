package services

import (
	"context"

	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// adminService implements user management for administrators
type adminService struct {
	users  UserDirectory
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(users UserDirectory, logger *zap.Logger) *adminService {
	return &adminService{
		users:  users,
		logger: logger,
	}
}

// AllUsers returns every user
func (s *adminService) AllUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListAll(ctx)
}

// GetUserDetails returns a single user
func (s *adminService) GetUserDetails(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateUser changes name, email and role of any user. Empty fields are left unchanged.
func (s *adminService) UpdateUser(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	upd := models.UserUpdate{
		Name:  optional(req.Name),
		Email: optional(req.Email),
	}
	if req.Role != "" {
		role := req.Role
		upd.Role = &role
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated by admin", zap.String("user_id", userID), zap.String("role", string(user.Role)))
	return user, nil
}

// DeleteUser removes a user
func (s *adminService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted by admin", zap.String("user_id", userID))
	return nil
}
