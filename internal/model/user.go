package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Color         string     `json:"color"`
	PinHash       string     `json:"-"`
	Role          string     `json:"role,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	LastWelcomeAt *time.Time `json:"last_welcome_at,omitempty"`
}

type RegisterRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Pin   string `json:"pin" validate:"required,len=4,numeric"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}

type LoginRequest struct {
	Name string `json:"name" validate:"required"`
	Pin  string `json:"pin" validate:"required"`
}
