package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// memoryTicketRepository is a map-backed store, interchangeable with the
// Postgres implementation. Used in tests and for running without a database.
type memoryTicketRepository struct {
	mu       sync.RWMutex
	tickets  map[string]domain.Ticket
	comments map[string][]domain.Comment
	now      func() time.Time
}

// NewMemoryTicketRepository returns an in-memory implementation.
func NewMemoryTicketRepository() TicketRepository {
	return NewMemoryTicketRepositoryWithClock(time.Now)
}

// NewMemoryTicketRepositoryWithClock lets tests pin the clock.
func NewMemoryTicketRepositoryWithClock(now func() time.Time) TicketRepository {
	return &memoryTicketRepository{
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.Comment),
		now:      now,
	}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) GetByReference(ctx context.Context, reference string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ticket := range r.tickets {
		if ticket.Reference == reference {
			t := ticket
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryTicketRepository) matches(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.AssignedToID != nil {
		if ticket.AssignedToID == nil || *ticket.AssignedToID != *filter.AssignedToID {
			return false
		}
	}
	if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if !strings.Contains(strings.ToLower(ticket.Title), search) &&
			!strings.Contains(strings.ToLower(ticket.Reference), search) &&
			!strings.Contains(strings.ToLower(ticket.Description), search) {
			return false
		}
	}
	return true
}

func (r *memoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Ticket
	for _, ticket := range r.tickets {
		if r.matches(ticket, filter) {
			matched = append(matched, ticket)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryTicketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, ticket := range r.tickets {
		if r.matches(ticket, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTicketRepository) CountCreatedToday(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := startOfDay(r.now())
	count := 0
	for _, ticket := range r.tickets {
		if !ticket.CreatedAt.Before(start) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTicketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[domain.TicketStatus]int)
	for _, ticket := range r.tickets {
		result[ticket.Status]++
	}
	return result, nil
}

func (r *memoryTicketRepository) CountByPriority(ctx context.Context) (map[domain.TicketPriority]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[domain.TicketPriority]int)
	for _, ticket := range r.tickets {
		result[ticket.Priority]++
	}
	return result, nil
}

func (r *memoryTicketRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	delete(r.comments, id)
	return nil
}

func (r *memoryTicketRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[comment.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.now()
	comment.UpdatedAt = comment.CreatedAt
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	return nil
}

func (r *memoryTicketRepository) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comments := make([]domain.Comment, len(r.comments[ticketID]))
	copy(comments, r.comments[ticketID])
	return comments, nil
}

// paginate slices items. A zero limit falls back to the default page size; a
// negative limit disables pagination.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit == 0 {
		limit = util.DefaultPageLimit
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
