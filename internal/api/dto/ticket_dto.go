package dto

import (
	"time"

	"github.com/spec-kit/servicehub-platform/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedToID *string               `json:"assignedToId"`
	DueDate      *time.Time            `json:"dueDate"`
}

// UpdateTicketRequest payload. Absent fields are left untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	DueDate     *time.Time             `json:"dueDate"`
}

// ChangeTicketStatusRequest payload.
type ChangeTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedToID string `json:"assignedToId"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}

// TicketResponse is the ticket wire representation.
type TicketResponse struct {
	ID           string                `json:"id"`
	Reference    string                `json:"reference"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedByID  string                `json:"createdById"`
	AssignedToID *string               `json:"assignedToId"`
	DueDate      *time.Time            `json:"dueDate"`
	ResolvedAt   *time.Time            `json:"resolvedAt"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// CommentResponse is the comment wire representation.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticketId"`
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TicketStatsResponse aggregates ticket counts.
type TicketStatsResponse struct {
	Total      int                           `json:"total"`
	ByStatus   map[domain.TicketStatus]int   `json:"byStatus"`
	ByPriority map[domain.TicketPriority]int `json:"byPriority"`
	Critical   int                           `json:"critical"`
}
