package auth

import (
	"time"

	"github.com/example/task-manager/pkg/apperror"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login: the user plus the
// token issued for it.
type SessionResponse struct {
	ID        string             `json:"id"`
	FullName  string             `json:"full_name"`
	Email     string             `json:"email"`
	CreatedAt time.Time          `json:"created_at"`
	Token     string             `json:"token"`
	ExpiresIn int64              `json:"expires_in"`
	Error     *apperror.Envelope `json:"error,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	ID        string             `json:"id"`
	FullName  string             `json:"full_name"`
	Email     string             `json:"email"`
	CreatedAt time.Time          `json:"created_at"`
	Error     *apperror.Envelope `json:"error,omitempty"`
}
