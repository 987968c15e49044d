package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	PSN      domain.PSN `json:"psn"`
	Password string     `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	PSN       domain.PSN  `json:"psn"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
}
