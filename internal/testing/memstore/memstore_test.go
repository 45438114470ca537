package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/shared"
)

func TestUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Users().Insert(ctx, auth.User{Name: "Alice", Email: "a@example.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = s.Users().Insert(ctx, auth.User{Name: "Mallory", Email: "a@example.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, shared.ErrDuplicateEmail)

	u, err := s.Users().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "h1", u.PasswordHash)
}

func TestDeleteCascadesRequests(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner, err := s.Users().Insert(ctx, auth.User{Name: "Alice", Email: "a@example.com"})
	require.NoError(t, err)

	repo := s.Donations()
	item, err := repo.Create(ctx, donations.Item{OwnerID: owner, Title: "Lamp", Status: donations.StatusAvailable})
	require.NoError(t, err)
	require.NotNil(t, item.Owner)
	_, err = repo.CreateRequest(ctx, donations.ContactRequest{ItemID: item.ID, RequesterID: owner, Message: "hi"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, item.ID))
	feed, err := repo.RecentRequests(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = repo.CreateRequest(ctx, donations.ContactRequest{ItemID: item.ID, RequesterID: owner})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTimestampsIncrease(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner, err := s.Users().Insert(ctx, auth.User{Name: "Alice", Email: "a@example.com"})
	require.NoError(t, err)

	first, err := s.Donations().Create(ctx, donations.Item{OwnerID: owner, Title: "One", Status: donations.StatusAvailable})
	require.NoError(t, err)
	second, err := s.Donations().Create(ctx, donations.Item{OwnerID: owner, Title: "Two", Status: donations.StatusAvailable})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
}
