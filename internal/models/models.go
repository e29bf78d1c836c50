package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Permission struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Description string `json:"description"`
}

type Role struct {
	ID          uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
}

// RolePermission is the role_permissions junction row. The association is
// also reachable through Role.Permissions; this model exists so the
// permission middleware and the replace-all transaction can address the
// table directly.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey" json:"role_id"`
	PermissionID uint `gorm:"primaryKey" json:"permission_id"`
}

func (RolePermission) TableName() string { return "role_permissions" }

type User struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	RoleID             *uint     `gorm:"index" json:"role_id,omitempty"`
	Role               *Role     `json:"role,omitempty"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	MustChangePassword bool      `gorm:"not null;default:false" json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BeforeCreate assigns the id in-process so the model behaves the same on
// postgres and on the sqlite driver the tests use.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken is one issued refresh session. Only a bcrypt hash of the raw
// token is stored, so lookup is scan-and-compare rather than indexed.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contact struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Name       string    `gorm:"not null" json:"name"`
	Position   string    `json:"position"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ServiceType struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Job struct {
	ID            uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID    uint         `gorm:"index;not null" json:"customer_id"`
	Customer      *Customer    `json:"customer,omitempty"`
	ServiceTypeID uint         `gorm:"index;not null" json:"service_type_id"`
	ServiceType   *ServiceType `json:"service_type,omitempty"`
	ScheduledAt   time.Time    `gorm:"index" json:"scheduled_at"`
	Status        string       `gorm:"not null;default:SCHEDULED" json:"status"`
	Details       JSONB        `gorm:"type:jsonb;default:'{}'" json:"details"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
