package store

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crmcore/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Permission{}, &models.Role{}, &models.RolePermission{},
		&models.User{}, &models.RefreshToken{},
	))
	return db
}

func seedPermissions(t *testing.T, db *gorm.DB, codes ...string) []models.Permission {
	t.Helper()
	perms := make([]models.Permission, 0, len(codes))
	for _, code := range codes {
		p := models.Permission{Code: code}
		require.NoError(t, db.Create(&p).Error)
		perms = append(perms, p)
	}
	return perms
}
