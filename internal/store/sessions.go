package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crmcore/internal/auth"
	"crmcore/internal/models"
)

// SessionStore persists refresh-token sessions. Rows are additive: each
// login inserts one, and multiple live sessions per user are allowed.
type SessionStore struct {
	DB *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore { return &SessionStore{DB: db} }

// Record hashes the raw refresh token and inserts a new session row.
func (s *SessionStore) Record(ctx context.Context, userID, rawToken string, expiresAt time.Time) error {
	hash, err := auth.HashToken(rawToken)
	if err != nil {
		return err
	}
	row := models.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

// ActiveFor returns the user's non-revoked, non-expired session rows.
func (s *SessionStore) ActiveFor(ctx context.Context, userID string) ([]models.RefreshToken, error) {
	var rows []models.RefreshToken
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Find(&rows).Error
	return rows, err
}

// Match compares the raw token against each candidate's stored hash. The
// hash is salted, so equal tokens hash differently and there is no indexed
// lookup; the linear scan is the lookup.
func (s *SessionStore) Match(rawToken string, rows []models.RefreshToken) *models.RefreshToken {
	for i := range rows {
		if auth.CheckToken(rows[i].TokenHash, rawToken) == nil {
			return &rows[i]
		}
	}
	return nil
}

// RevokeAllFor marks every session row of the user revoked. Idempotent.
func (s *SessionStore) RevokeAllFor(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error
}
