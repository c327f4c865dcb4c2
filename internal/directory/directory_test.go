package directory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/models"
	"github.com/shopit/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeHasher prefixes the plaintext so tests can tell hashed values apart
type fakeHasher struct {
	err error
}

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDirectory(store Store) *Directory {
	d := New(store, &fakeHasher{}, zap.NewNop())
	d.now = func() time.Time { return fixedNow }
	return d
}

func createUser(t *testing.T, d *Directory, email string) *models.User {
	t.Helper()
	user, err := d.Create(context.Background(), models.NewUser{Name: "Jane", Email: email, Password: "secret1"})
	require.NoError(t, err)
	return user
}

func TestDirectory_Create(t *testing.T) {
	tests := []struct {
		name          string
		input         models.NewUser
		expectedCode  string
		expectedError string
	}{
		{
			name:  "success",
			input: models.NewUser{Name: "  Jane Doe ", Email: " Jane@Example.COM ", Password: "secret1"},
		},
		{
			name:          "missing name",
			input:         models.NewUser{Email: "jane@example.com", Password: "secret1"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Please enter your name",
		},
		{
			name:          "name too long",
			input:         models.NewUser{Name: strings.Repeat("a", 51), Email: "jane@example.com", Password: "secret1"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Your name cannot exceed 50 characters",
		},
		{
			name:          "missing email",
			input:         models.NewUser{Name: "Jane", Password: "secret1"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Please enter your email",
		},
		{
			name:          "invalid email",
			input:         models.NewUser{Name: "Jane", Email: "not-an-email", Password: "secret1"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Please enter a valid email address",
		},
		{
			name:          "missing password",
			input:         models.NewUser{Name: "Jane", Email: "jane@example.com"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Please enter your password",
		},
		{
			name:          "short password",
			input:         models.NewUser{Name: "Jane", Email: "jane@example.com", Password: "12345"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Your password must be at least 6 characters",
		},
		{
			name:          "password over bcrypt limit",
			input:         models.NewUser{Name: "Jane", Email: "jane@example.com", Password: strings.Repeat("p", 73)},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Your password cannot exceed 72 bytes",
		},
		{
			name:  "password at bcrypt limit",
			input: models.NewUser{Name: "Jane Doe", Email: "jane@example.com", Password: strings.Repeat("p", 72)},
		},
		{
			name:          "invalid role",
			input:         models.NewUser{Name: "Jane", Email: "jane@example.com", Password: "secret1", Role: "root"},
			expectedCode:  apperrors.CodeValidation,
			expectedError: "Invalid role: root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemStore()
			d := newTestDirectory(store)
			d.newID = func() string { return "user-1" }

			user, err := d.Create(context.Background(), tt.input)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.expectedCode, apperrors.Code(err))
				assert.Equal(t, tt.expectedError, apperrors.Message(err))
				assert.Equal(t, 0, store.Len())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "user-1", user.ID)
			assert.Equal(t, "Jane Doe", user.Name)
			assert.Equal(t, "jane@example.com", user.Email)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.Equal(t, fixedNow, user.CreatedAt)
			assert.Empty(t, user.Password)

			stored, ok := store.Raw("user-1")
			require.True(t, ok)
			assert.Equal(t, "hashed:"+tt.input.Password, stored.Password)
		})
	}
}

func TestDirectory_Create_DuplicateEmail(t *testing.T) {
	d := newTestDirectory(testutil.NewMemStore())
	createUser(t, d, "jane@example.com")

	user, err := d.Create(context.Background(), models.NewUser{Name: "Other", Email: "JANE@example.com", Password: "secret2"})

	assert.Nil(t, user)
	assert.Equal(t, apperrors.CodeConflict, apperrors.Code(err))
	assert.Equal(t, "Duplicate email entered", apperrors.Message(err))
}

func TestDirectory_Create_HashError(t *testing.T) {
	store := testutil.NewMemStore()
	d := New(store, &fakeHasher{err: errors.New("boom")}, zap.NewNop())

	user, err := d.Create(context.Background(), models.NewUser{Name: "Jane", Email: "jane@example.com", Password: "secret1"})

	assert.Nil(t, user)
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestDirectory_FindByEmail(t *testing.T) {
	d := newTestDirectory(testutil.NewMemStore())
	created := createUser(t, d, "jane@example.com")

	t.Run("without secret", func(t *testing.T) {
		user, err := d.FindByEmail(context.Background(), " JANE@example.com", false)
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.Empty(t, user.Password)
	})

	t.Run("with secret", func(t *testing.T) {
		user, err := d.FindByEmail(context.Background(), "jane@example.com", true)
		require.NoError(t, err)
		assert.Equal(t, "hashed:secret1", user.Password)
	})

	t.Run("not found", func(t *testing.T) {
		user, err := d.FindByEmail(context.Background(), "nobody@example.com", false)
		assert.Nil(t, user)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
		assert.Equal(t, "User not found with this email", apperrors.Message(err))
	})
}

func TestDirectory_FindByID(t *testing.T) {
	d := newTestDirectory(testutil.NewMemStore())
	created := createUser(t, d, "jane@example.com")

	user, err := d.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, user.Email)
	assert.Empty(t, user.Password)

	_, err = d.FindByID(context.Background(), "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	assert.Equal(t, "User not found with id: missing", apperrors.Message(err))

	withSecret, err := d.FindByIDWithSecret(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret1", withSecret.Password)

	_, err = d.FindByIDWithSecret(context.Background(), "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestDirectory_FindByResetHash(t *testing.T) {
	d := newTestDirectory(testutil.NewMemStore())
	created := createUser(t, d, "jane@example.com")

	expiresAt := fixedNow.Add(30 * time.Minute)
	_, err := d.Update(context.Background(), created.ID, models.UserUpdate{
		Reset: &models.ResetState{TokenHash: "abc", ExpiresAt: expiresAt},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		hash  string
		now   time.Time
		found bool
	}{
		{"valid", "abc", fixedNow, true},
		{"wrong hash", "abd", fixedNow, false},
		{"empty hash", "", fixedNow, false},
		{"expired", "abc", expiresAt.Add(time.Second), false},
		{"at expiry", "abc", expiresAt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := d.FindByResetHash(context.Background(), tt.hash, tt.now)
			if tt.found {
				require.NoError(t, err)
				assert.Equal(t, created.ID, user.ID)
				assert.Empty(t, user.Password)
				return
			}
			assert.Nil(t, user)
			assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
			assert.Equal(t, "Password reset token is invalid or has been expired", apperrors.Message(err))
		})
	}
}

func TestDirectory_Update(t *testing.T) {
	store := testutil.NewMemStore()
	d := newTestDirectory(store)
	created := createUser(t, d, "jane@example.com")
	createUser(t, d, "taken@example.com")

	name := " Janet "
	email := "Janet@Example.com"
	role := models.RoleAdmin
	password := "newsecret"

	t.Run("fields", func(t *testing.T) {
		user, err := d.Update(context.Background(), created.ID, models.UserUpdate{
			Name: &name, Email: &email, Role: &role, Password: &password,
		})
		require.NoError(t, err)
		assert.Equal(t, "Janet", user.Name)
		assert.Equal(t, "janet@example.com", user.Email)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.Empty(t, user.Password)

		stored, _ := store.Raw(created.ID)
		assert.Equal(t, "hashed:newsecret", stored.Password)
	})

	t.Run("reset set and cleared", func(t *testing.T) {
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{
			Reset: &models.ResetState{TokenHash: "h", ExpiresAt: fixedNow.Add(time.Hour)},
		})
		require.NoError(t, err)
		stored, _ := store.Raw(created.ID)
		require.NotNil(t, stored.ResetPasswordToken)
		require.NotNil(t, stored.ResetPasswordExpire)

		_, err = d.Update(context.Background(), created.ID, models.UserUpdate{ClearReset: true})
		require.NoError(t, err)
		stored, _ = store.Raw(created.ID)
		assert.Nil(t, stored.ResetPasswordToken)
		assert.Nil(t, stored.ResetPasswordExpire)
	})

	t.Run("empty update returns current user", func(t *testing.T) {
		user, err := d.Update(context.Background(), created.ID, models.UserUpdate{})
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		taken := "taken@example.com"
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{Email: &taken})
		assert.Equal(t, apperrors.CodeConflict, apperrors.Code(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		bad := models.Role("root")
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{Role: &bad})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	})

	t.Run("short password", func(t *testing.T) {
		short := "abc"
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{Password: &short})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
		stored, _ := store.Raw(created.ID)
		assert.Equal(t, "hashed:newsecret", stored.Password)
	})

	t.Run("reset guard", func(t *testing.T) {
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{
			Reset: &models.ResetState{TokenHash: "h2", ExpiresAt: fixedNow.Add(time.Hour)},
		})
		require.NoError(t, err)
		consume := func() error {
			pw := "guarded1"
			_, err := d.Update(context.Background(), created.ID, models.UserUpdate{
				Password:   &pw,
				ClearReset: true,
				IfReset:    &models.ResetGuard{TokenHash: "h2", ValidAt: fixedNow},
			})
			return err
		}

		require.NoError(t, consume())
		stored, _ := store.Raw(created.ID)
		assert.Equal(t, "hashed:guarded1", stored.Password)
		assert.Nil(t, stored.ResetPasswordToken)

		err = consume()
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
		assert.Equal(t, "Password reset token is invalid or has been expired", apperrors.Message(err))
	})

	t.Run("reset guard after expiry", func(t *testing.T) {
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{
			Reset: &models.ResetState{TokenHash: "h3", ExpiresAt: fixedNow},
		})
		require.NoError(t, err)
		pw := "guarded2"

		_, err = d.Update(context.Background(), created.ID, models.UserUpdate{
			Password:   &pw,
			ClearReset: true,
			IfReset:    &models.ResetGuard{TokenHash: "h3", ValidAt: fixedNow},
		})

		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
		stored, _ := store.Raw(created.ID)
		assert.Equal(t, "hashed:guarded1", stored.Password)
		assert.NotNil(t, stored.ResetPasswordToken)
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		long := strings.Repeat("x", 80)
		_, err := d.Update(context.Background(), created.ID, models.UserUpdate{Password: &long})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
		assert.Equal(t, "Your password cannot exceed 72 bytes", apperrors.Message(err))
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := d.Update(context.Background(), "missing", models.UserUpdate{Name: &name})
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	})
}

func TestDirectory_ListAll(t *testing.T) {
	d := newTestDirectory(testutil.NewMemStore())
	createUser(t, d, "a@example.com")
	createUser(t, d, "b@example.com")

	users, err := d.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
}

func TestDirectory_Delete(t *testing.T) {
	store := testutil.NewMemStore()
	d := newTestDirectory(store)
	created := createUser(t, d, "jane@example.com")

	require.NoError(t, d.Delete(context.Background(), created.ID))
	assert.Equal(t, 0, store.Len())

	err := d.Delete(context.Background(), created.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestDirectory_StoreFailure(t *testing.T) {
	store := testutil.NewMemStore()
	store.Err = errors.New("connection refused")
	d := newTestDirectory(store)

	_, err := d.FindByID(context.Background(), "id")
	require.Error(t, err)
	assert.Empty(t, apperrors.Code(err))
	assert.Contains(t, err.Error(), "connection refused")

	_, err = d.ListAll(context.Background())
	assert.Error(t, err)
}
