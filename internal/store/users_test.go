package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/models"
)

func TestUserCreateAndLookup(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	u := models.User{Username: "alice", PasswordHash: "h", IsActive: true}
	require.NoError(t, s.Create(ctx, &u))
	assert.NotEmpty(t, u.ID)

	dup := models.User{Username: "alice", PasswordHash: "h"}
	assert.ErrorIs(t, s.Create(ctx, &dup), ErrDuplicateUsername)

	got, err := s.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Lookup is exact-match, case-sensitive.
	_, err = s.ByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	u := models.User{Username: "temp", PasswordHash: "h"}
	require.NoError(t, s.Create(ctx, &u))

	require.NoError(t, s.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Delete(ctx, u.ID), ErrNotFound)
	_, err := s.ByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserListPreloadsRole(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	role := models.Role{Name: "Sales"}
	require.NoError(t, db.Create(&role).Error)
	u := models.User{Username: "carol", PasswordHash: "h", RoleID: &role.ID}
	require.NoError(t, s.Create(ctx, &u))

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].Role)
	assert.Equal(t, "Sales", users[0].Role.Name)
}
