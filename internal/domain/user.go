package domain

import "time"

// User is an authenticated platform account.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	RoleID       string
	Role         *Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
