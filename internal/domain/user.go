package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// UserStatus enumerates account states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User represents a registered account within the platform.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          UserRole
	Status        UserStatus
	EmailVerified bool
	Country       string
	Language      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user may perform administrative operations.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
