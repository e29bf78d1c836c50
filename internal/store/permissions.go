package store

import (
	"context"

	"gorm.io/gorm"

	"crmcore/internal/models"
)

// PermissionStore reads the static permission catalog.
type PermissionStore struct {
	DB *gorm.DB
}

func NewPermissionStore(db *gorm.DB) *PermissionStore { return &PermissionStore{DB: db} }

func (s *PermissionStore) List(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.DB.WithContext(ctx).Order("code").Find(&perms).Error
	return perms, err
}

// MissingIDs returns the subset of ids not present in the catalog.
func (s *PermissionStore) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []uint
	err := s.DB.WithContext(ctx).Model(&models.Permission{}).
		Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	known := make(map[uint]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
