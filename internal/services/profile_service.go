package services

import (
	"context"
	"strings"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/metrics"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// profileService implements operations of the logged in user on their own account
type profileService struct {
	users     UserDirectory
	passwords PasswordVerifier
	tokens    TokenIssuer
	logger    *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(users UserDirectory, passwords PasswordVerifier, tokens TokenIssuer, logger *zap.Logger) *profileService {
	return &profileService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// GetUserProfile returns the current state of the user
func (s *profileService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdatePassword changes the password after checking the old one and issues a fresh session token
func (s *profileService) UpdatePassword(ctx context.Context, userID string, req *models.UpdatePasswordRequest) (user *models.User, token string, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventUpdatePassword, err) }()

	current, err := s.users.FindByIDWithSecret(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if !s.passwords.Verify(req.OldPassword, current.Password) {
		return nil, "", apperrors.Validation("Old password is incorrect")
	}

	password := req.Password
	user, err = s.users.Update(ctx, userID, models.UserUpdate{Password: &password})
	if err != nil {
		return nil, "", err
	}

	token, err = s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("password updated", zap.String("user_id", userID))
	return user, token, nil
}

// UpdateProfile changes the name and email of the user. Empty fields are left unchanged.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	return s.users.Update(ctx, userID, models.UserUpdate{
		Name:  optional(req.Name),
		Email: optional(req.Email),
	})
}

// optional returns nil for blank input so the field is left as is
func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
