package auth

import "github.com/marketdesk/marketdesk/pkg/enums"

// SignupInput is the self-service registration form. Accounts created this
// way are always customers.
type SignupInput struct {
	FullName string  `json:"full_name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,max=72"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginInput carries the credentials posted to the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateAccountInput is the operator path for accounts with an elevated role.
type CreateAccountInput struct {
	FullName string     `json:"full_name" validate:"required,max=120"`
	Email    string     `json:"email" validate:"required,email,max=254"`
	Password string     `json:"password" validate:"required,max=72"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role     enums.Role `json:"role" validate:"required"`
}
