package client

import "time"

// User is the signed-in user as returned by the API.
type User struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User
	Token string `json:"token"`
}

// FieldError is one violated validation rule reported by the server.
type FieldError struct {
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
}

// Result is the outcome of a register, login or load-user transition.
type Result struct {
	Success bool
	Error   string
	Errors  []FieldError
}
