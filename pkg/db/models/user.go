package models

import (
	"time"

	"github.com/marketdesk/marketdesk/pkg/enums"
)

// BootstrapAdminID is the id reserved for the first-run admin account.
const BootstrapAdminID uint = 1

// User represents the canonical identity entity. Users are never hard-deleted
// and their role does not change after creation.
type User struct {
	ID           uint       `gorm:"column:id;primaryKey;autoIncrement"`
	FullName     string     `gorm:"column:full_name;not null"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:idx_users_email"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        *string    `gorm:"column:phone"`
	Role         enums.Role `gorm:"column:role;type:text;not null"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
