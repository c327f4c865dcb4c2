package services

import (
	"context"
	"testing"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_AllUsers(t *testing.T) {
	env := newTestEnv(t)

	users, err := env.admin.AllUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	env.register(t, "Jane", "jane@example.com", "secret1")
	env.register(t, "John", "john@example.com", "secret1")

	users, err = env.admin.AllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
}

func TestAdminService_GetUserDetails(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "Jane", "jane@example.com", "secret1")

	found, err := env.admin.GetUserDetails(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", found.Name)

	_, err = env.admin.GetUserDetails(context.Background(), "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	assert.Equal(t, "User not found with id: missing", apperrors.Message(err))
}

func TestAdminService_UpdateUser(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		req          *models.UpdateUserRequest
		expectedCode string
		expectedRole models.Role
		expectedName string
	}{
		{
			name:         "promote to admin",
			req:          &models.UpdateUserRequest{Role: models.RoleAdmin},
			expectedRole: models.RoleAdmin,
			expectedName: "Jane",
		},
		{
			name:         "rename only",
			req:          &models.UpdateUserRequest{Name: "Janet"},
			expectedRole: models.RoleUser,
			expectedName: "Janet",
		},
		{
			name:         "invalid role",
			req:          &models.UpdateUserRequest{Role: "superuser"},
			expectedCode: apperrors.CodeValidation,
		},
		{
			name:         "missing user",
			userID:       "missing",
			req:          &models.UpdateUserRequest{Name: "Janet"},
			expectedCode: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			user := env.register(t, "Jane", "jane@example.com", "secret1")
			userID := user.ID
			if tt.userID != "" {
				userID = tt.userID
			}

			updated, err := env.admin.UpdateUser(context.Background(), userID, tt.req)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, apperrors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRole, updated.Role)
			assert.Equal(t, tt.expectedName, updated.Name)
			assert.Equal(t, "jane@example.com", updated.Email)
		})
	}
}

func TestAdminService_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "Jane", "jane@example.com", "secret1")

	require.NoError(t, env.admin.DeleteUser(context.Background(), user.ID))
	assert.Equal(t, 0, env.store.Len())

	err := env.admin.DeleteUser(context.Background(), user.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}
