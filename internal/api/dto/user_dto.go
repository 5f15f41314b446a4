package dto

import (
	"time"

	"github.com/spec-kit/callcenter-service/internal/domain"
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserSummary is the public shape of an account.
type UserSummary struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// ProfileResponse is the caller's own account, hash included for the
// profile-edit pre-fill.
type ProfileResponse struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"password_hash"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// CreateUserRequest payload, admin only. Role defaults to agent.
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UpdateUserRequest payload. Password and role apply only when supplied.
type UpdateUserRequest struct {
	Username string       `json:"username"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
}

// NewUserSummary maps a domain user.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// NewProfileResponse maps a domain user including the stored hash.
func NewProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
	}
}
