package models

import "time"

// Role is the authorization level of a user
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account.
//
// Password holds the bcrypt hash and is only populated when a caller asks for
// it explicitly. The reset fields are either both set or both nil.
type User struct {
	ID                  string     `json:"_id" bson:"_id"`
	Name                string     `json:"name" bson:"name"`
	Email               string     `json:"email" bson:"email"`
	Password            string     `json:"-" bson:"password,omitempty"`
	Role                Role       `json:"role" bson:"role"`
	ResetPasswordToken  *string    `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time `json:"-" bson:"resetPasswordExpire,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
}

// NewUser holds the fields accepted when creating a user. Password is plaintext.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// UserUpdate holds the fields to change on a user; nil means "leave as is".
// Password is plaintext and is hashed before it reaches the store.
type UserUpdate struct {
	Name     *string
	Email    *string
	Role     *Role
	Password *string
	// Reset sets both reset fields, ClearReset removes both. Reset wins if both are set.
	Reset      *ResetState
	ClearReset bool
	// IfReset makes the update apply only while the user still holds this
	// reset hash and it has not expired. A password reset uses it to consume
	// its secret exactly once.
	IfReset *ResetGuard
}

// ResetGuard is the outstanding reset an update depends on: the lookup hash and
// the moment the expiry must still lie after
type ResetGuard struct {
	TokenHash string
	ValidAt   time.Time
}

// ResetState is an outstanding password reset: the lookup hash of the secret
// that was mailed to the user and the moment it stops being accepted
type ResetState struct {
	TokenHash string
	ExpiresAt time.Time
}

// UserChanges is what a store applies: UserUpdate after validation and hashing
type UserChanges struct {
	Name         *string
	Email        *string
	Role         *Role
	PasswordHash *string
	Reset        *ResetState
	ClearReset   bool
	IfReset      *ResetGuard
}

// Empty reports whether there is nothing to apply
func (c *UserChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Role == nil && c.PasswordHash == nil && c.Reset == nil && !c.ClearReset
}
