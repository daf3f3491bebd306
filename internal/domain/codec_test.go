package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/gateway"
)

func TestDecodeTicket(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket, err := DecodeTicket(gateway.Document{
		ID: "t1",
		Data: map[string]any{
			"title":     "VPN down",
			"priority":  "urgent",
			"status":    "pending",
			"userId":    "uid-1",
			"userEmail": "alice@example.com",
			"createdAt": created,
			"updates": []map[string]any{
				{"text": "on it", "createdAt": created, "createdBy": "bob@example.com"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "t1", ticket.ID, "id comes from the document key, not the payload")
	assert.Equal(t, TicketPriorityUrgent, ticket.Priority)
	assert.Equal(t, TicketStatusPending, ticket.Status)
	require.Len(t, ticket.Updates, 1)
	assert.Equal(t, "on it", ticket.Updates[0].Text)
	assert.True(t, created.Equal(ticket.CreatedAt))
}

func TestDecodeTicketLegacyStatusPassesThrough(t *testing.T) {
	ticket, err := DecodeTicket(gateway.Document{
		ID:   "t1",
		Data: map[string]any{"title": "old one", "status": "in-progress"},
	})
	require.NoError(t, err)
	assert.Equal(t, TicketStatus("in-progress"), ticket.Status)
}

func TestDecodeProfile(t *testing.T) {
	profile, err := DecodeProfile(gateway.Document{
		ID:   "uid-1",
		Data: map[string]any{"name": "Alice", "email": "alice@example.com", "role": "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", profile.UID)
	assert.Equal(t, RoleAdmin, profile.EffectiveRole())
}

func TestEffectiveRoleDefaultsToUser(t *testing.T) {
	assert.Equal(t, RoleUser, UserProfile{}.EffectiveRole())
	assert.NotEqual(t, RoleAdmin, UserProfile{Role: "weird"}.EffectiveRole())
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, TicketPriorityUrgent.SeverityRank(), TicketPriorityHigh.SeverityRank())
	assert.Less(t, TicketPriorityHigh.SeverityRank(), TicketPriorityMedium.SeverityRank())
	assert.Less(t, TicketPriorityMedium.SeverityRank(), TicketPriorityLow.SeverityRank())
	assert.Greater(t, TicketPriority("mystery").SeverityRank(), TicketPriorityLow.SeverityRank())
}
