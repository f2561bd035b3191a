package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingClient   TicketStatus = "WAITING_CLIENT"
	TicketStatusWaitingInternal TicketStatus = "WAITING_INTERNAL"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
	TicketStatusCancelled       TicketStatus = "CANCELLED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	Reference    string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CreatedByID  string
	AssignedToID *string
	DueDate      *time.Time
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:            {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress:      {TicketStatusWaitingClient, TicketStatusWaitingInternal, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusWaitingClient:   {TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusWaitingInternal: {TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusResolved:        {TicketStatusClosed, TicketStatusInProgress},
	TicketStatusClosed:          {},
	TicketStatusCancelled:       {},
}

// CanTransition reports whether moving from current to next is allowed.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range ticketTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// ValidTicketStatus reports whether s is a known status value.
func ValidTicketStatus(s TicketStatus) bool {
	_, ok := ticketTransitions[s]
	return ok
}

// ValidTicketPriority reports whether p is a known priority value.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}
