package models

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents a request for a password reset email
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the new password sent with a reset token
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdatePasswordRequest represents a password change by the logged in user
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// UpdateProfileRequest represents a profile change by the logged in user
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest represents an admin edit of any user
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AuthResponse is returned whenever a session token is issued
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// UserResponse wraps a single user
type UserResponse struct {
	User *User `json:"user"`
}

// UsersResponse wraps a list of users
type UsersResponse struct {
	Users []User `json:"users"`
}

// MessageResponse carries a human readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// SuccessResponse reports a completed operation without a payload
type SuccessResponse struct {
	Success bool `json:"success"`
}
