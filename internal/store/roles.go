package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crmcore/internal/models"
)

// SuperAdminRoleName is the distinguished role seeded by bootstrap. It can
// never be deleted and always holds the full permission catalog.
const SuperAdminRoleName = "SUPER_ADMIN"

// RoleStore persists roles and their permission assignments.
type RoleStore struct {
	DB    *gorm.DB
	Perms *PermissionStore
}

func NewRoleStore(db *gorm.DB) *RoleStore {
	return &RoleStore{DB: db, Perms: NewPermissionStore(db)}
}

// Create adds a role with an empty permission set. Name matching is exact
// and case-sensitive.
func (s *RoleStore) Create(ctx context.Context, name string) (*models.Role, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Role{}).
		Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateRole
	}
	role := models.Role{Name: name}
	if err := s.DB.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *RoleStore) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.DB.WithContext(ctx).Preload("Permissions").Order("id").Find(&roles).Error
	return roles, err
}

func (s *RoleStore) ByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ReplacePermissions swaps the role's entire permission set in one
// transaction. Every id is validated against the catalog first; any unknown
// id rejects the whole call and leaves the stored set untouched. An empty
// list is valid and clears the role.
func (s *RoleStore) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Role{}).
		Where("id = ?", roleID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrRoleNotFound
	}

	ids := dedup(permissionIDs)
	missing, err := s.Perms.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &InvalidPermissionsError{Missing: missing}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).
			Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		for _, pid := range ids {
			if err := tx.Create(&models.RolePermission{RoleID: roleID, PermissionID: pid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a role and its permission associations atomically.
// Guards, in order: the super-admin role is untouchable, the acting user
// may not delete their own role, and any other holder blocks deletion
// until users are reassigned.
func (s *RoleStore) Delete(ctx context.Context, roleID uint, actingUserID string) error {
	var role models.Role
	err := s.DB.WithContext(ctx).First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if role.Name == SuperAdminRoleName {
		return ErrProtectedRole
	}

	var holders []models.User
	if err := s.DB.WithContext(ctx).
		Where("role_id = ?", roleID).Find(&holders).Error; err != nil {
		return err
	}
	others := &RoleInUseError{}
	for _, u := range holders {
		if u.ID == actingUserID {
			return ErrOwnRole
		}
		others.UserIDs = append(others.UserIDs, u.ID)
		others.Usernames = append(others.Usernames, u.Username)
	}
	if len(others.Usernames) > 0 {
		return others
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).
			Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, roleID).Error
	})
}

func dedup(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
