package repositories

import "errors"

// Errors shared by the user stores
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)
