package bootstrap

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crmcore/internal/auth"
	"crmcore/internal/config"
	"crmcore/internal/models"
	"crmcore/internal/store"
)

// Catalog is the full set of permission codes. Seeded at boot, never
// deleted at runtime; adding a code here is how a capability is born.
var Catalog = []models.Permission{
	{Code: "USER_CREATE", Description: "Create staff accounts"},
	{Code: "USER_VIEW", Description: "List staff accounts"},
	{Code: "USER_CREDENTIAL_UPDATE", Description: "Change a user's username or password"},
	{Code: "USER_ROLE_UPDATE", Description: "Change a user's role assignment"},
	{Code: "USER_DELETE", Description: "Delete staff accounts"},
	{Code: "ROLE_CREATE", Description: "Create roles"},
	{Code: "ROLE_VIEW", Description: "View roles and the permission catalog"},
	{Code: "ROLE_PERMISSION_UPDATE", Description: "Replace a role's permission set"},
	{Code: "ROLE_DELETE", Description: "Delete roles"},
	{Code: "CUSTOMER_VIEW", Description: "View customers"},
	{Code: "CUSTOMER_CREATE", Description: "Create customers"},
	{Code: "CUSTOMER_UPDATE", Description: "Update customers"},
	{Code: "CUSTOMER_DELETE", Description: "Delete customers"},
	{Code: "CONTACT_VIEW", Description: "View customer contacts"},
	{Code: "CONTACT_CREATE", Description: "Create customer contacts"},
	{Code: "CONTACT_UPDATE", Description: "Update customer contacts"},
	{Code: "CONTACT_DELETE", Description: "Delete customer contacts"},
	{Code: "SERVICE_TYPE_VIEW", Description: "View service types"},
	{Code: "SERVICE_TYPE_CREATE", Description: "Create service types"},
	{Code: "SERVICE_TYPE_UPDATE", Description: "Update service types"},
	{Code: "SERVICE_TYPE_DELETE", Description: "Delete service types"},
	{Code: "JOB_VIEW", Description: "View job schedules"},
	{Code: "JOB_CREATE", Description: "Create job schedules"},
	{Code: "JOB_UPDATE", Description: "Update job schedules"},
	{Code: "JOB_DELETE", Description: "Delete job schedules"},
}

// Run seeds the permission catalog, the super-admin role with every
// permission, and the initial admin account. Safe to run on every start:
// each step inserts only what is absent, and an existing admin's
// credentials are never overwritten.
func Run(db *gorm.DB, cfg config.Config, lg *zap.SugaredLogger) error {
	if err := seedPermissions(db); err != nil {
		return err
	}
	role, err := ensureSuperAdminRole(db)
	if err != nil {
		return err
	}
	if err := grantAllPermissions(db, role.ID); err != nil {
		return err
	}
	return ensureAdminUser(db, cfg, role.ID, lg)
}

func seedPermissions(db *gorm.DB) error {
	for _, p := range Catalog {
		var existing models.Permission
		err := db.First(&existing, "code = ?", p.Code).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&models.Permission{Code: p.Code, Description: p.Description}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Description != p.Description:
			if err := db.Model(&existing).Update("description", p.Description).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureSuperAdminRole(db *gorm.DB) (*models.Role, error) {
	var role models.Role
	err := db.First(&role, "name = ?", store.SuperAdminRoleName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = models.Role{Name: store.SuperAdminRoleName}
		if err := db.Create(&role).Error; err != nil {
			return nil, err
		}
		return &role, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func grantAllPermissions(db *gorm.DB, roleID uint) error {
	var perms []models.Permission
	if err := db.Find(&perms).Error; err != nil {
		return err
	}
	for _, p := range perms {
		var count int64
		if err := db.Model(&models.RolePermission{}).
			Where("role_id = ? AND permission_id = ?", roleID, p.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&models.RolePermission{RoleID: roleID, PermissionID: p.ID}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdminUser(db *gorm.DB, cfg config.Config, roleID uint, lg *zap.SugaredLogger) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("username = ?", cfg.SuperAdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	u := models.User{
		Username:           cfg.SuperAdminUsername,
		PasswordHash:       hash,
		RoleID:             &roleID,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := db.Create(&u).Error; err != nil {
		return err
	}
	lg.Infow("seeded initial admin", "username", cfg.SuperAdminUsername)
	return nil
}
