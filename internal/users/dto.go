package users

import (
	"strings"
	"time"

	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        uint       `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Role      enums.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// ID is only set for the reserved bootstrap account.
type CreateUserDTO struct {
	ID           uint
	FullName     string
	Email        string
	PasswordHash string
	Phone        *string
	Role         enums.Role
	IsActive     *bool
}

// RoleCount is one row of CountByRole.
type RoleCount struct {
	Role  enums.Role
	Count int64
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	var phone *string
	if c.Phone != nil {
		if trimmed := strings.TrimSpace(*c.Phone); trimmed != "" {
			phone = &trimmed
		}
	}

	return &models.User{
		ID:           c.ID,
		FullName:     strings.TrimSpace(c.FullName),
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Phone:        phone,
		Role:         c.Role.Normalize(),
		IsActive:     isActive,
	}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
