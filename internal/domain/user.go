package domain

import "time"

// Role distinguishes students from facility administrators.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether the value is an accepted role.
func ValidRole(r Role) bool {
	return r == RoleStudent || r == RoleAdmin
}

// User is the domain model for anyone who signs in: students who report
// issues and admins who process them.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	StudentID    *string
	Department   *string
	Phone        *string
	Avatar       *string
	PushToken    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserRef is the populated reference embedded in issue responses.
type UserRef struct {
	ID        string
	Name      string
	Email     string
	StudentID *string
}
