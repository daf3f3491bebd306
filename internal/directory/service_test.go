package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/gateway/gatewaytest"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

var ident = domain.Identity{
	UID:         "uid-1",
	Email:       "alice@example.com",
	DisplayName: "Alice",
}

func newService(t *testing.T) (*Service, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.NewFake()
	return NewService(fake, zap.NewNop()), fake
}

func TestGetProfileLazyCreate(t *testing.T) {
	s, fake := newService(t)

	profile, err := s.GetProfile(context.Background(), ident)
	require.NoError(t, err)
	assert.Equal(t, ident.UID, profile.UID)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, ident.Email, profile.Email)

	data, ok := fake.Document(gateway.CollectionUsers, ident.UID)
	require.True(t, ok, "first access materializes the profile document")
	assert.Equal(t, "Alice", data["name"])
	assert.Equal(t, ident.Email, data["email"])
}

func TestGetProfileExisting(t *testing.T) {
	s, fake := newService(t)
	fake.Seed(gateway.CollectionUsers, ident.UID, map[string]any{
		"name":       "Alice Smith",
		"email":      ident.Email,
		"phone":      "555-0100",
		"department": "IT",
		"role":       "admin",
	})

	profile, err := s.GetProfile(context.Background(), ident)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", profile.Name)
	assert.Equal(t, "555-0100", profile.Phone)
	assert.Equal(t, domain.RoleAdmin, profile.EffectiveRole())
	assert.Empty(t, fake.Writes(), "no write when the profile already exists")
}

func TestSaveProfilePinsEmail(t *testing.T) {
	s, fake := newService(t)
	fake.Seed(gateway.CollectionUsers, ident.UID, map[string]any{
		"name":  "Alice",
		"email": ident.Email,
		"role":  "admin",
	})

	err := s.SaveProfile(context.Background(), ident, ProfileInput{
		Name:     "  Alice S.  ",
		Phone:    "555-0199",
		Location: "HQ",
	})
	require.NoError(t, err)

	data, _ := fake.Document(gateway.CollectionUsers, ident.UID)
	assert.Equal(t, "Alice S.", data["name"])
	assert.Equal(t, "555-0199", data["phone"])
	assert.Equal(t, ident.Email, data["email"], "email always comes from the identity")
	assert.Equal(t, "admin", data["role"], "merge write preserves the role")
}

func TestSetRole(t *testing.T) {
	s, fake := newService(t)

	// keyed upsert: works before the profile document exists
	require.NoError(t, s.SetRole(context.Background(), "uid-9", domain.RoleAdmin))
	data, ok := fake.Document(gateway.CollectionUsers, "uid-9")
	require.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, data["role"])

	err := s.SetRole(context.Background(), "uid-9", domain.Role("superuser"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestDeleteUser(t *testing.T) {
	s, fake := newService(t)
	fake.Seed(gateway.CollectionUsers, "uid-9", map[string]any{"name": "Bob"})

	require.NoError(t, s.DeleteUser(context.Background(), "uid-9"))
	_, ok := fake.Document(gateway.CollectionUsers, "uid-9")
	assert.False(t, ok)

	err := s.DeleteUser(context.Background(), "uid-9")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestListUsers(t *testing.T) {
	s, fake := newService(t)
	fake.Seed(gateway.CollectionUsers, "uid-1", map[string]any{"name": "Alice"})
	fake.Seed(gateway.CollectionUsers, "uid-2", map[string]any{"name": "Bob"})

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	uids := []string{users[0].UID, users[1].UID}
	assert.ElementsMatch(t, []string{"uid-1", "uid-2"}, uids)
}
