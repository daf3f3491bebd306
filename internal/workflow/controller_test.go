package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/gateway/gatewaytest"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

var actor = domain.Identity{
	UID:         "uid-1",
	Email:       "alice@example.com",
	DisplayName: "Alice",
}

func newController(t *testing.T) (*Controller, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.NewFake()
	return NewController(fake, zap.NewNop()), fake
}

func seedTicket(fake *gatewaytest.Fake, id string, status domain.TicketStatus) {
	fake.Seed(gateway.CollectionTickets, id, map[string]any{
		"title":       "broken keyboard",
		"description": "keys are sticky",
		"category":    "hardware",
		"priority":    "medium",
		"status":      string(status),
		"userId":      actor.UID,
		"userEmail":   actor.Email,
		"userName":    actor.DisplayName,
		"createdAt":   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		"updatedAt":   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestCreateTicket(t *testing.T) {
	c, fake := newController(t)
	pinned := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	fake.Clock = func() time.Time { return pinned }

	id, err := c.CreateTicket(context.Background(), actor, CreateTicketInput{
		Title:       "  VPN down  ",
		Description: "cannot connect",
		Category:    "network",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data, ok := fake.Document(gateway.CollectionTickets, id)
	require.True(t, ok)
	assert.Equal(t, "VPN down", data["title"], "title is trimmed")
	assert.Equal(t, domain.TicketPriorityHigh, data["priority"])
	assert.Equal(t, domain.TicketStatusPending, data["status"], "new tickets always start pending")
	assert.Equal(t, actor.UID, data["userId"])
	assert.Equal(t, actor.Email, data["userEmail"])
	assert.Equal(t, pinned, data["createdAt"], "timestamp assigned by the gateway")
	assert.Equal(t, pinned, data["updatedAt"])
}

func TestCreateTicketDefaultsPriority(t *testing.T) {
	c, fake := newController(t)

	id, err := c.CreateTicket(context.Background(), actor, CreateTicketInput{
		Title:       "slow laptop",
		Description: "takes minutes to boot",
		Category:    "hardware",
	})
	require.NoError(t, err)

	data, _ := fake.Document(gateway.CollectionTickets, id)
	assert.Equal(t, domain.TicketPriorityMedium, data["priority"])
}

func TestCreateTicketValidation(t *testing.T) {
	c, fake := newController(t)

	_, err := c.CreateTicket(context.Background(), actor, CreateTicketInput{
		Title:       "   ",
		Description: "something",
		Category:    "misc",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Empty(t, fake.Writes(), "invalid input never reaches the gateway")
}

func TestGetTicketNotFound(t *testing.T) {
	c, _ := newController(t)
	_, err := c.GetTicket(context.Background(), "missing")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestTransitionPendingToResolved(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	require.NoError(t, c.Transition(context.Background(), "t1", domain.TicketStatusResolved))

	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, domain.TicketStatusResolved, data["status"])
	assert.Equal(t, "broken keyboard", data["title"], "merge write leaves other fields intact")
}

func TestTransitionResolvedToClosed(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusResolved)

	require.NoError(t, c.Transition(context.Background(), "t1", domain.TicketStatusClosed))

	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, domain.TicketStatusClosed, data["status"])
}

func TestTransitionFromTerminalStates(t *testing.T) {
	for _, from := range []domain.TicketStatus{domain.TicketStatusRejected, domain.TicketStatusClosed} {
		c, fake := newController(t)
		seedTicket(fake, "t1", from)

		err := c.Transition(context.Background(), "t1", domain.TicketStatusResolved)
		assert.Equal(t, "VALIDATION_FAILED", errCode(t, err), "from %s", from)
		assert.Empty(t, fake.Writes())
	}
}

func TestTransitionRefusesDirectRejection(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	err := c.Transition(context.Background(), "t1", domain.TicketStatusRejected)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Empty(t, fake.Writes(), "rejection without a staged reason writes nothing")
}

func TestTransitionWriteFailure(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)
	fake.FailWrites(assert.AnError)

	err := c.Transition(context.Background(), "t1", domain.TicketStatusResolved)
	assert.Equal(t, "WRITE_FAILED", errCode(t, err))

	fake.FailWrites(nil)
	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, "pending", data["status"], "failed write leaves the ticket untouched")
}

func TestStagedRejectionCommit(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	staged := c.StageRejection("t1")
	assert.Equal(t, "t1", staged.TicketID())
	assert.Empty(t, fake.Writes(), "staging writes nothing")

	require.NoError(t, staged.Commit(context.Background(), "duplicate of t0"))

	writes := fake.Writes()
	require.Len(t, writes, 1, "status and reason land in one write")
	assert.Equal(t, "merge", writes[0].Op)
	assert.Equal(t, domain.TicketStatusRejected, writes[0].Data["status"])
	assert.Equal(t, "duplicate of t0", writes[0].Data["rejectionReason"])

	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, domain.TicketStatusRejected, data["status"])
	assert.Equal(t, "duplicate of t0", data["rejectionReason"])
}

func TestStagedRejectionCancelWritesNothing(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	staged := c.StageRejection("t1")
	staged.Cancel()
	assert.Empty(t, fake.Writes())

	err := staged.Commit(context.Background(), "too late")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Empty(t, fake.Writes())

	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, "pending", data["status"])
}

func TestStagedRejectionSingleUse(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	staged := c.StageRejection("t1")
	require.NoError(t, staged.Commit(context.Background(), "first"))

	err := staged.Commit(context.Background(), "second")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Len(t, fake.Writes(), 1)
}

func TestStagedRejectionRevalidatesAtCommit(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	staged := c.StageRejection("t1")
	// ticket moves on while the rejection dialog is open
	require.NoError(t, c.Transition(context.Background(), "t1", domain.TicketStatusResolved))

	err := staged.Commit(context.Background(), "no longer valid")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	data, _ := fake.Document(gateway.CollectionTickets, "t1")
	assert.Equal(t, domain.TicketStatusResolved, data["status"])
	assert.NotContains(t, data, "rejectionReason")
}

func TestAddComment(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)
	pinned := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return pinned }

	require.NoError(t, c.AddComment(context.Background(), "t1", actor, "  looking into it  "))

	ticket, err := c.GetTicket(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, ticket.Updates, 1)
	assert.Equal(t, "looking into it", ticket.Updates[0].Text)
	assert.Equal(t, actor.Email, ticket.Updates[0].CreatedBy)
	assert.True(t, pinned.Equal(ticket.Updates[0].CreatedAt))
}

func TestAddCommentAppends(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	require.NoError(t, c.AddComment(context.Background(), "t1", actor, "first"))
	require.NoError(t, c.AddComment(context.Background(), "t1", actor, "second"))

	ticket, err := c.GetTicket(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, ticket.Updates, 2)
	assert.Equal(t, "first", ticket.Updates[0].Text)
	assert.Equal(t, "second", ticket.Updates[1].Text)
}

func TestAddCommentRejectsWhitespace(t *testing.T) {
	c, fake := newController(t)
	seedTicket(fake, "t1", domain.TicketStatusPending)

	err := c.AddComment(context.Background(), "t1", actor, "   \n\t ")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Empty(t, fake.Writes(), "rejected before any gateway call")
}
