package api

import "time"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	UserResponse
	Token string `json:"token"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldErrorResponse describes one violated validation rule.
type FieldErrorResponse struct {
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string               `json:"message"`
	Errors  []FieldErrorResponse `json:"errors,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is the health of one module.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
