package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/mail"
	"github.com/shopit/backend/internal/metrics"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// ResetPathPrefix is the path of the reset link mailed to users, relative to the frontend URL
const ResetPathPrefix = "/api/v1/password/reset/"

// UserDirectory is the interface that wraps methods for user record access
type UserDirectory interface {
	// Method Create validates and stores a new user.
	//
	// The returned user never carries the password hash.
	Create(ctx context.Context, in models.NewUser) (*models.User, error)
	// Method FindByEmail retrieves a user by email.
	//
	// "includeSecret" keeps the password hash on the returned user for verification.
	FindByEmail(ctx context.Context, email string, includeSecret bool) (*models.User, error)
	// Method FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id string) (*models.User, error)
	// Method FindByIDWithSecret retrieves a user by ID together with the password hash.
	FindByIDWithSecret(ctx context.Context, id string) (*models.User, error)
	// Method FindByResetHash retrieves the user holding the reset hash, if it has not expired as of "now".
	FindByResetHash(ctx context.Context, hash string, now time.Time) (*models.User, error)
	// Method Update applies the changes and returns the post-update user.
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	// Method ListAll retrieves every user.
	ListAll(ctx context.Context) ([]models.User, error)
	// Method Delete removes a user.
	Delete(ctx context.Context, id string) error
}

// PasswordVerifier compares a plaintext password with a stored digest
type PasswordVerifier interface {
	Verify(plaintext, digest string) bool
}

// TokenIssuer issues session tokens
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// ResetCodec creates reset secrets and derives their lookup hashes
type ResetCodec interface {
	Generate() (secret, hash string, expiresAt time.Time, err error)
	Resolve(secret string) string
}

// authService implements the credential lifecycle flows
type authService struct {
	users       UserDirectory
	passwords   PasswordVerifier
	tokens      TokenIssuer
	resets      ResetCodec
	sender      mail.Sender
	logger      *zap.Logger
	frontendURL string
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserDirectory,
	passwords PasswordVerifier,
	tokens TokenIssuer,
	resets ResetCodec,
	sender mail.Sender,
	logger *zap.Logger,
	frontendURL string,
) *authService {
	return &authService{
		users:       users,
		passwords:   passwords,
		tokens:      tokens,
		resets:      resets,
		sender:      sender,
		logger:      logger,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// Register creates a user account and issues a session token for it
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (user *models.User, token string, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventRegister, err) }()

	user, err = s.users.Create(ctx, models.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		return nil, "", err
	}

	token, err = s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login authenticates a user by email and password.
// An unknown email and a wrong password produce the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (user *models.User, token string, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventLogin, err) }()

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, "", apperrors.Validation("Please enter email & password")
	}

	user, err = s.users.FindByEmail(ctx, req.Email, true)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, "", apperrors.Authentication("Invalid email or password")
		}
		return nil, "", err
	}

	if !s.passwords.Verify(req.Password, user.Password) {
		return nil, "", apperrors.Authentication("Invalid email or password")
	}
	user.Password = ""

	token, err = s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ForgotPassword stores a reset hash for the user and mails them the secret.
// When the email cannot be sent the stored reset state is cleared again.
// It returns the address the email was sent to.
func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (sentTo string, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventForgotPassword, err) }()

	if strings.TrimSpace(req.Email) == "" {
		return "", apperrors.Validation("Please enter your email")
	}

	user, err := s.users.FindByEmail(ctx, req.Email, false)
	if err != nil {
		return "", err
	}

	secret, hash, expiresAt, err := s.resets.Generate()
	if err != nil {
		return "", err
	}

	if _, err := s.users.Update(ctx, user.ID, models.UserUpdate{
		Reset: &models.ResetState{TokenHash: hash, ExpiresAt: expiresAt},
	}); err != nil {
		return "", err
	}

	resetURL := s.frontendURL + ResetPathPrefix + secret
	msg, err := mail.ResetPasswordMessage(user.Email, user.Name, resetURL)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		s.clearReset(ctx, user.ID)
		return "", apperrors.Dependency(err, "send reset email")
	}

	s.logger.Info("password reset email sent", zap.String("user_id", user.ID))
	return user.Email, nil
}

// clearReset is the compensating step of ForgotPassword
func (s *authService) clearReset(ctx context.Context, userID string) {
	// The request may already be cancelled; the clear must still reach the store.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.users.Update(ctx, userID, models.UserUpdate{ClearReset: true}); err != nil {
		s.logger.Error("failed to clear reset token after send failure", zap.String("user_id", userID), zap.Error(err))
	}
}

// ResetPassword sets a new password for the holder of a valid reset secret,
// consumes the secret and issues a session token
func (s *authService) ResetPassword(ctx context.Context, secret string, req *models.ResetPasswordRequest) (user *models.User, token string, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventResetPassword, err) }()

	hash, now := s.resets.Resolve(secret), s.now()
	user, err = s.users.FindByResetHash(ctx, hash, now)
	if err != nil {
		return nil, "", err
	}

	if req.Password != req.ConfirmPassword {
		return nil, "", apperrors.Validation("Password does not match")
	}

	password := req.Password
	user, err = s.users.Update(ctx, user.ID, models.UserUpdate{
		Password:   &password,
		ClearReset: true,
		IfReset:    &models.ResetGuard{TokenHash: hash, ValidAt: now},
	})
	if err != nil {
		return nil, "", err
	}

	token, err = s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return user, token, nil
}
