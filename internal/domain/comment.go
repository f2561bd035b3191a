package domain

import "time"

// Comment is a threaded note on a ticket. Internal comments are staff-only.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
