package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	refs       *reference.Generator
	dispatcher events.Dispatcher
	locks      *EntityLocks
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	References *reference.Generator
	Dispatcher events.Dispatcher
	Locks      *EntityLocks
	Clock      func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	locks := deps.Locks
	if locks == nil {
		locks = NewEntityLocks()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		refs:       deps.References,
		dispatcher: deps.Dispatcher,
		locks:      locks,
		now:        now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	AssignedToID *string
	DueDate      *time.Time
}

// TicketUpdateInput describes mutable ticket fields.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	DueDate     *time.Time
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedToID *string
	SearchTerm   *string
	Page         int
	Limit        int
}

// TicketStats aggregates ticket counts for reporting.
type TicketStats struct {
	Total      int                           `json:"total"`
	ByStatus   map[domain.TicketStatus]int   `json:"byStatus"`
	ByPriority map[domain.TicketPriority]int `json:"byPriority"`
	Critical   int                           `json:"critical"`
}

// Create opens a new ticket on behalf of a user.
func (s *TicketService) Create(ctx context.Context, createdByID string, input TicketCreateInput) (*domain.Ticket, error) {
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(priority) {
		return nil, util.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Reference:    s.refs.Generate(reference.PrefixTicket),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		CreatedByID:  createdByID,
		AssignedToID: input.AssignedToID,
		DueDate:      input.DueDate,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		EntityID: ticket.ID,
		ActorID:  createdByID,
		Payload: events.TicketCreatedPayload{
			Reference: ticket.Reference,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// FindAll returns a page of tickets visible to the actor. Clients only see
// tickets they created.
func (s *TicketService) FindAll(ctx context.Context, actor *domain.User, input TicketListInput) ([]domain.Ticket, util.PageMeta, error) {
	page, limit := util.NormalizePage(input.Page, input.Limit)

	filter := repository.TicketFilter{
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		SearchTerm:   input.SearchTerm,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}
	if actor != nil && actor.Role != nil && actor.Role.Name == domain.RoleClient {
		filter.CreatedByID = &actor.ID
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return tickets, util.NewPageMeta(total, page, limit), nil
}

// FindByID fetches a single ticket.
func (s *TicketService) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("ticket", id, err)
	}
	return ticket, nil
}

// FindByReference fetches a ticket by its human-readable reference.
func (s *TicketService) FindByReference(ctx context.Context, ref string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByReference(ctx, ref)
	if err != nil {
		return nil, notFound("ticket", ref, err)
	}
	return ticket, nil
}

// Update mutates title/description/priority/due date. Closed and cancelled
// tickets are immutable.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, util.NewInvalidOperation("cannot modify a closed or cancelled ticket")
	}

	if input.Title != nil {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !domain.ValidTicketPriority(*input.Priority) {
			return nil, util.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.DueDate != nil {
		ticket.DueDate = input.DueDate
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Assign sets the assignee. An OPEN ticket auto-advances to IN_PROGRESS.
func (s *TicketService) Assign(ctx context.Context, id, assigneeID string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, util.NewInvalidOperation("cannot assign a closed or cancelled ticket")
	}

	oldStatus := ticket.Status
	ticket.AssignedToID = &assigneeID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		EntityID: ticket.ID,
		Payload:  events.TicketAssignedPayload{AssignedToID: assigneeID},
	})
	if ticket.Status != oldStatus {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			EntityID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// ChangeStatus applies a transition from the allowed-transition table.
// Entering RESOLVED stamps the resolution time; it is kept on reopen as a
// last-resolved audit mark.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidTicketStatus(newStatus) {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(ticket.Status, newStatus) {
		return nil, util.NewInvalidOperation(
			fmt.Sprintf("invalid status transition: %s -> %s", ticket.Status, newStatus))
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusResolved {
		resolvedAt := s.now()
		ticket.ResolvedAt = &resolvedAt
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		EntityID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to a ticket thread.
func (s *TicketService) AddComment(ctx context.Context, ticketID, authorID, content string, isInternal bool) (*domain.Comment, error) {
	ticket, err := s.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   authorID,
		Content:    strings.TrimSpace(content),
		IsInternal: isInternal,
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		EntityID: ticket.ID,
		ActorID:  authorID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:  comment.ID,
			IsInternal: comment.IsInternal,
		},
	})
	return comment, nil
}

// Comments returns the comment thread. Internal comments are filtered out
// for clients.
func (s *TicketService) Comments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	if _, err := s.FindByID(ctx, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.tickets.ListComments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != nil && actor.Role.Name == domain.RoleClient {
		visible := make([]domain.Comment, 0, len(comments))
		for _, comment := range comments {
			if !comment.IsInternal {
				visible = append(visible, comment)
			}
		}
		comments = visible
	}
	return comments, nil
}

// Delete removes a ticket permanently. Route-level guards restrict this to
// administrators.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.tickets.Delete(ctx, id)
}

// Stats aggregates counts for dashboards.
func (s *TicketService) Stats(ctx context.Context) (*TicketStats, error) {
	total, err := s.tickets.Count(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	return &TicketStats{
		Total:      total,
		ByStatus:   byStatus,
		ByPriority: byPriority,
		Critical:   byPriority[domain.TicketPriorityCritical],
	}, nil
}

// SeedReferenceCounter aligns the ticket reference counter with the number
// of tickets created today. Called once at startup.
func (s *TicketService) SeedReferenceCounter(ctx context.Context) error {
	count, err := s.tickets.CountCreatedToday(ctx)
	if err != nil {
		return err
	}
	day := s.now().Format("20060102")
	s.refs.InitializeCounter(reference.PrefixTicket, day, count)
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func notFound(entity, id string, err error) error {
	if util.ToDomainError(err).Code == "ENTITY_NOT_FOUND" {
		return util.NewEntityNotFound(entity, id)
	}
	return err
}
