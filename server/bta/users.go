package bta

import (
	"context"
	"time"
)

// User roles. Every user carries exactly one.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account that can sign in to the budget tracker.
//
// FirstLogin forces a password change on the next sign in. It is set on
// creation and whenever an admin resets the password.
type User struct {
	ID             uint      `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	Role           string    `json:"role" db:"role"`
	FirstLogin     bool      `json:"first_login" db:"first_login"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// UserStore contains methods for managing users in a datastore.
type UserStore interface {
	NewUser(ctx context.Context, user *User) (*User, error)
	// UserByEmail looks a user up by email, case-insensitively.
	UserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, opt ListOptions) ([]*User, error)
	// SavePassword stores a new password hash. firstLogin marks whether the
	// user must change it again on next sign in.
	SavePassword(ctx context.Context, email, hashedPassword string, firstLogin bool) error
	DeleteUser(ctx context.Context, email string) error
	// SeedAdminUser creates the initial admin account when the users table
	// is empty. It is a no-op when any user already exists. The password must
	// already be hashed.
	SeedAdminUser(ctx context.Context, name, username, email, hashedPassword string) error

	NewLoginActivity(ctx context.Context, activity *LoginActivity) error
	ListLoginActivity(ctx context.Context, opt ListOptions) ([]*LoginActivity, error)
}
