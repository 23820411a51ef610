package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

var adapterErrors = map[apperror.Code]error{
	apperror.CodeConflict:     ErrUserExists,
	apperror.CodeUnauthorized: ErrInvalidCredentials,
	apperror.CodeNotFound:     ErrUserNotFound,
}

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, fullName, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// Register creates an account and returns the signed-in session.
func (a *AuthAdapter) Register(ctx context.Context, fullName, email, password string) (*Session, error) {
	req := RegisterRequest{FullName: fullName, Email: email, Password: password}
	var resp SessionResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "register", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return fromSessionResponse(resp)
}

// Login signs a user in with email and password.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*Session, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp SessionResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "login", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return fromSessionResponse(resp)
}

// ValidateToken validates a session token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "validate-token", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		if resp.Error == "token expired" {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-user", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, apperror.Unwrap(resp.Error, adapterErrors)
	}

	return &domain.User{
		ID:        resp.ID,
		FullName:  resp.FullName,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}

func fromSessionResponse(resp SessionResponse) (*Session, error) {
	if resp.Error != nil {
		return nil, apperror.Unwrap(resp.Error, adapterErrors)
	}
	return &Session{
		User: &domain.User{
			ID:        resp.ID,
			FullName:  resp.FullName,
			Email:     resp.Email,
			CreatedAt: resp.CreatedAt,
		},
		Token: resp.Token,
	}, nil
}
