package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/models"
)

func TestSessionRecordAndMatch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewSessionStore(db)
	ctx := context.Background()

	raw := "raw-refresh-token-value-1"
	require.NoError(t, s.Record(ctx, "user-1", raw, time.Now().Add(time.Hour)))

	rows, err := s.ActiveFor(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEqual(t, raw, rows[0].TokenHash)

	assert.NotNil(t, s.Match(raw, rows))
	assert.Nil(t, s.Match("some-other-token", rows))
}

func TestSessionMultipleConcurrent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewSessionStore(db)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "user-1", "token-a", time.Now().Add(time.Hour)))
	require.NoError(t, s.Record(ctx, "user-1", "token-b", time.Now().Add(time.Hour)))

	rows, err := s.ActiveFor(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Both sessions stay independently valid.
	assert.NotNil(t, s.Match("token-a", rows))
	assert.NotNil(t, s.Match("token-b", rows))
}

func TestSessionActiveForExcludesExpiredAndRevoked(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewSessionStore(db)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "user-1", "live", time.Now().Add(time.Hour)))
	require.NoError(t, s.Record(ctx, "user-1", "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, s.Record(ctx, "user-2", "other-user", time.Now().Add(time.Hour)))

	rows, err := s.ActiveFor(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotNil(t, s.Match("live", rows))
}

func TestRevokeAllFor(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := NewSessionStore(db)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "user-1", "token-a", time.Now().Add(time.Hour)))
	require.NoError(t, s.Record(ctx, "user-1", "token-b", time.Now().Add(time.Hour)))
	require.NoError(t, s.Record(ctx, "user-2", "token-c", time.Now().Add(time.Hour)))

	require.NoError(t, s.RevokeAllFor(ctx, "user-1"))

	rows, err := s.ActiveFor(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	var all []models.RefreshToken
	require.NoError(t, db.Where("user_id = ?", "user-1").Find(&all).Error)
	require.Len(t, all, 2)
	for _, row := range all {
		assert.True(t, row.Revoked)
	}

	// Other users untouched; a second revoke is a no-op.
	rows, err = s.ActiveFor(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	require.NoError(t, s.RevokeAllFor(ctx, "user-1"))
}
