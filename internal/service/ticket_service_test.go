package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

var testClock = func() time.Time {
	return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
}

func newTicketServiceForTest(t *testing.T) *TicketService {
	t.Helper()
	return NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepositoryWithClock(testClock),
		References: reference.NewGeneratorWithClock(testClock),
		Dispatcher: events.NewInMemoryDispatcher(),
		Clock:      testClock,
	})
}

func clientUser(id string) *domain.User {
	return &domain.User{
		ID:   id,
		Role: &domain.Role{Name: domain.RoleClient},
	}
}

func agentUser(id string) *domain.User {
	return &domain.User{
		ID:   id,
		Role: &domain.Role{Name: domain.RoleAgent},
	}
}

func TestTicketCreateDefaults(t *testing.T) {
	svc := newTicketServiceForTest(t)

	ticket, err := svc.Create(context.Background(), "user-1", TicketCreateInput{
		Title:       "Printer on fire",
		Description: "It is literally on fire",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "TKT-20260315-0001", ticket.Reference)
	assert.Equal(t, "user-1", ticket.CreatedByID)
	assert.Nil(t, ticket.ResolvedAt)
}

func TestTicketCreateRejectsUnknownPriority(t *testing.T) {
	svc := newTicketServiceForTest(t)

	_, err := svc.Create(context.Background(), "user-1", TicketCreateInput{
		Title:    "x",
		Priority: domain.TicketPriority("SOMEDAY"),
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestTicketAssignAdvancesOpenToInProgress(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	assigned, err := svc.Assign(ctx, ticket.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, "agent-1", *assigned.AssignedToID)
}

func TestTicketAssignKeepsNonOpenStatus(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, ticket.ID, "agent-1")
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusWaitingClient)
	require.NoError(t, err)

	reassigned, err := svc.Assign(ctx, ticket.ID, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusWaitingClient, reassigned.Status)
	assert.Equal(t, "agent-2", *reassigned.AssignedToID)
}

func TestTicketStatusTransitions(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	// OPEN cannot resolve directly.
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))

	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)

	resolved, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, testClock(), *resolved.ResolvedAt)

	closed, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)

	// CLOSED is terminal.
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestTicketWaitingClientCannotClose(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusWaitingClient)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusClosed)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestTicketReopenKeepsResolvedAt(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	reopened, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.NotNil(t, reopened.ResolvedAt)
}

func TestTicketUpdateRejectsTerminal(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "user-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusCancelled)
	require.NoError(t, err)

	title := "new title"
	_, err = svc.Update(ctx, ticket.ID, TicketUpdateInput{Title: &title})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))

	_, err = svc.Assign(ctx, ticket.ID, "agent-1")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestTicketFindAllScopesClients(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, "client-1", TicketCreateInput{Title: "mine"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "client-2", TicketCreateInput{Title: "theirs"})
	require.NoError(t, err)

	tickets, meta, err := svc.FindAll(ctx, clientUser("client-1"), TicketListInput{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, mine.ID, tickets[0].ID)
	assert.Equal(t, 1, meta.Total)

	all, meta, err := svc.FindAll(ctx, agentUser("agent-1"), TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, meta.Total)
}

func TestTicketCommentsHideInternalFromClients(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, "client-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, ticket.ID, "client-1", "please help", false)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, ticket.ID, "agent-1", "customer is confused", true)
	require.NoError(t, err)

	visible, err := svc.Comments(ctx, clientUser("client-1"), ticket.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "please help", visible[0].Content)

	all, err := svc.Comments(ctx, agentUser("agent-1"), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTicketFindByIDNotFound(t *testing.T) {
	svc := newTicketServiceForTest(t)

	_, err := svc.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "ENTITY_NOT_FOUND"))
}

func TestTicketFindByReference(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u", TicketCreateInput{Title: "a"})
	require.NoError(t, err)

	found, err := svc.FindByReference(ctx, created.Reference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.FindByReference(ctx, "TKT-19700101-9999")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "ENTITY_NOT_FOUND"))
}

func TestTicketReferencesAreSequential(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "u", TicketCreateInput{Title: "a"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u", TicketCreateInput{Title: "b"})
	require.NoError(t, err)

	assert.Equal(t, "TKT-20260315-0001", first.Reference)
	assert.Equal(t, "TKT-20260315-0002", second.Reference)
}

func TestTicketSeedReferenceCounter(t *testing.T) {
	repo := repository.NewMemoryTicketRepositoryWithClock(testClock)
	refs := reference.NewGeneratorWithClock(testClock)
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		References: refs,
		Dispatcher: events.NewInMemoryDispatcher(),
		Clock:      testClock,
	})
	ctx := context.Background()

	_, err := svc.Create(ctx, "u", TicketCreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u", TicketCreateInput{Title: "b"})
	require.NoError(t, err)

	// Simulate a restart: fresh generator, counter rebuilt from storage.
	restarted := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		References: reference.NewGeneratorWithClock(testClock),
		Dispatcher: events.NewInMemoryDispatcher(),
		Clock:      testClock,
	})
	require.NoError(t, restarted.SeedReferenceCounter(ctx))

	third, err := restarted.Create(ctx, "u", TicketCreateInput{Title: "c"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-20260315-0003", third.Reference)
}

func TestTicketStats(t *testing.T) {
	svc := newTicketServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u", TicketCreateInput{Title: "a", Priority: domain.TicketPriorityCritical})
	require.NoError(t, err)
	ticket, err := svc.Create(ctx, "u", TicketCreateInput{Title: "b"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusOpen])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusInProgress])
	assert.Equal(t, 1, stats.Critical)
}
