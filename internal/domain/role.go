package domain

import "time"

// Well-known role names seeded at install time.
const (
	RoleAdmin  = "ADMIN"
	RoleAgent  = "AGENT"
	RoleClient = "CLIENT"
)

// Role groups a flat set of permission tokens. The "*" token grants everything.
type Role struct {
	ID          string
	Name        string
	Description string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
