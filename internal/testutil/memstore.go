// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopit/backend/internal/models"
	"github.com/shopit/backend/internal/repositories"
)

// MemStore is an in-memory user store with the same error contract as the
// database-backed repositories
type MemStore struct {
	mu    sync.Mutex
	users map[string]models.User

	// Err, when set, is returned by every call
	Err error
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]models.User)}
}

// Create inserts a user
func (s *MemStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = clone(*user)
	return nil
}

// GetByEmail returns the user with the given email
func (s *MemStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// GetByID returns the user with the given ID
func (s *MemStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := clone(u)
	return &out, nil
}

// GetByResetTokenHash returns the user holding hash with an expiry after now
func (s *MemStore) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.ResetPasswordToken == nil || u.ResetPasswordExpire == nil {
			continue
		}
		if *u.ResetPasswordToken == hash && u.ResetPasswordExpire.After(now) {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// Update applies changes to a user
func (s *MemStore) Update(ctx context.Context, id string, changes *models.UserChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if g := changes.IfReset; g != nil {
		if u.ResetPasswordToken == nil || *u.ResetPasswordToken != g.TokenHash ||
			u.ResetPasswordExpire == nil || !u.ResetPasswordExpire.After(g.ValidAt) {
			return repositories.ErrUserNotFound
		}
	}
	if changes.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *changes.Email {
				return repositories.ErrDuplicateEmail
			}
		}
		u.Email = *changes.Email
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if changes.Role != nil {
		u.Role = *changes.Role
	}
	if changes.PasswordHash != nil {
		u.Password = *changes.PasswordHash
	}
	switch {
	case changes.Reset != nil:
		hash := changes.Reset.TokenHash
		expire := changes.Reset.ExpiresAt
		u.ResetPasswordToken = &hash
		u.ResetPasswordExpire = &expire
	case changes.ClearReset:
		u.ResetPasswordToken = nil
		u.ResetPasswordExpire = nil
	}
	s.users[id] = u
	return nil
}

// GetAll returns every user ordered by creation time
func (s *MemStore) GetAll(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, clone(u))
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Delete removes a user
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// Raw returns the stored record, password hash and reset state included
func (s *MemStore) Raw(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	return clone(u), ok
}

// Len returns the number of stored users
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func clone(u models.User) models.User {
	if u.ResetPasswordToken != nil {
		token := *u.ResetPasswordToken
		u.ResetPasswordToken = &token
	}
	if u.ResetPasswordExpire != nil {
		expire := *u.ResetPasswordExpire
		u.ResetPasswordExpire = &expire
	}
	return u
}
