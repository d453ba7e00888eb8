package dto

import (
	"time"

	"github.com/deskline/helpdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse represents a directory profile.
type UserResponse struct {
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	FullName  string      `json:"full_name"`
	AvatarURL *string     `json:"avatar_url"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
