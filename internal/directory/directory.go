// Package directory is the single entry point to user records. It enforces the
// user invariants on top of a pluggable Store: emails are normalized and
// unique, passwords are hashed on every write, and reads never carry the
// password hash unless a caller asks for it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/models"
	"github.com/shopit/backend/internal/repositories"
	"go.uber.org/zap"
)

// Field limits
const (
	MaxNameLength     = 50
	MinPasswordLength = 6
	// bcrypt only accepts this many bytes
	MaxPasswordBytes = 72
)

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Store is the interface that wraps methods for user persistence.
// Implementations return repositories.ErrUserNotFound and
// repositories.ErrDuplicateEmail for the matching conditions.
type Store interface {
	// Method Create inserts a new user. The user ID is already assigned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user, including the password hash, by normalized email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user, including the password hash, by ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Method GetByResetTokenHash retrieves the user holding the given reset hash
	// whose reset expiry is strictly after "now".
	GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error)
	// Method Update applies changes to a single user atomically.
	Update(ctx context.Context, id string, changes *models.UserChanges) error
	// Method GetAll retrieves all users ordered by creation time.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method Delete removes a user by ID.
	Delete(ctx context.Context, id string) error
}

// Hasher hashes plaintext passwords
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Directory implements the user directory over a Store
type Directory struct {
	store  Store
	hasher Hasher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a new directory
func New(store Store, hasher Hasher, logger *zap.Logger) *Directory {
	return &Directory{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create validates input, hashes the password and stores a new user
func (d *Directory) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.Validation("Invalid role: %s", role)
	}

	passwordHash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        d.newID(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: d.now().UTC().Truncate(time.Second),
	}

	if err := d.store.Create(ctx, user); err != nil {
		return nil, d.translate(err, "create user", zap.String("email", email))
	}

	return withoutSecret(user), nil
}

// FindByEmail retrieves a user by email. The password hash is kept only when includeSecret is set.
func (d *Directory) FindByEmail(ctx context.Context, email string, includeSecret bool) (*models.User, error) {
	user, err := d.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found with this email")
		}
		return nil, d.translate(err, "find user by email")
	}

	if includeSecret {
		return user, nil
	}
	return withoutSecret(user), nil
}

// FindByID retrieves a user by ID
func (d *Directory) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := d.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found with id: %s", id)
		}
		return nil, d.translate(err, "find user by id", zap.String("user_id", id))
	}

	return withoutSecret(user), nil
}

// FindByIDWithSecret retrieves a user by ID, keeping the password hash for verification
func (d *Directory) FindByIDWithSecret(ctx context.Context, id string) (*models.User, error) {
	user, err := d.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found with id: %s", id)
		}
		return nil, d.translate(err, "find user by id", zap.String("user_id", id))
	}

	return user, nil
}

// FindByResetHash retrieves the user holding an unexpired reset token with the given hash.
// A wrong hash and an expired one are reported identically.
func (d *Directory) FindByResetHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, apperrors.NotFound("Password reset token is invalid or has been expired")
	}

	user, err := d.store.GetByResetTokenHash(ctx, hash, now)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("Password reset token is invalid or has been expired")
		}
		return nil, d.translate(err, "find user by reset token")
	}

	return withoutSecret(user), nil
}

// Update applies the given changes and returns the updated user
func (d *Directory) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	changes := &models.UserChanges{
		Reset:      upd.Reset,
		ClearReset: upd.ClearReset && upd.Reset == nil,
		IfReset:    upd.IfReset,
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		changes.Name = &name
	}

	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		changes.Email = &email
	}

	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, apperrors.Validation("Invalid role: %s", *upd.Role)
		}
		role := *upd.Role
		changes.Role = &role
	}

	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		passwordHash, err := d.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &passwordHash
	}

	if !changes.Empty() {
		if err := d.store.Update(ctx, id, changes); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				if upd.IfReset != nil {
					return nil, apperrors.NotFound("Password reset token is invalid or has been expired")
				}
				return nil, apperrors.NotFound("User not found with id: %s", id)
			}
			return nil, d.translate(err, "update user", zap.String("user_id", id))
		}
	}

	return d.FindByID(ctx, id)
}

// ListAll retrieves every user
func (d *Directory) ListAll(ctx context.Context) ([]models.User, error) {
	users, err := d.store.GetAll(ctx)
	if err != nil {
		return nil, d.translate(err, "list users")
	}

	for i := range users {
		stripSecret(&users[i])
	}
	return users, nil
}

// Delete removes a user.
// TODO: remove the user's avatar from media storage once avatars are uploaded.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NotFound("User not found with id: %s", id)
		}
		return d.translate(err, "delete user", zap.String("user_id", id))
	}
	return nil
}

// translate maps store errors that carry meaning for callers; anything else is
// logged and returned without a kind so the client only sees a generic 500
func (d *Directory) translate(err error, operation string, fields ...zap.Field) error {
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		return apperrors.Conflict("Duplicate email entered")
	}
	d.logger.Error("user store failure", append(fields, zap.String("operation", operation), zap.Error(err))...)
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func validateName(name string) error {
	if name == "" {
		return apperrors.Validation("Please enter your name")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperrors.Validation("Your name cannot exceed %d characters", MaxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.Validation("Please enter your email")
	}
	if !emailRegex.MatchString(email) {
		return apperrors.Validation("Please enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperrors.Validation("Please enter your password")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.Validation("Your password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return apperrors.Validation("Your password cannot exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

func withoutSecret(user *models.User) *models.User {
	out := *user
	stripSecret(&out)
	return &out
}

func stripSecret(user *models.User) {
	user.Password = ""
}
