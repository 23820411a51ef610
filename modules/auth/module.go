package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/task-manager/pkg/apperror"
	"github.com/example/task-manager/pkg/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// serviceErrors lists the failures callers of the auth services can tell apart.
var serviceErrors = map[error]apperror.Code{
	ErrUserExists:         apperror.CodeConflict,
	ErrInvalidCredentials: apperror.CodeUnauthorized,
	ErrUserNotFound:       apperror.CodeNotFound,
}

// AuthModule provides authentication services.
type AuthModule struct {
	db        *gorm.DB
	service   *AuthService
	dbConfig  database.Config
	jwtConfig JWTConfig
	jwt       *JWTManager
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(dbConfig database.Config, jwtConfig JWTConfig) *AuthModule {
	return &AuthModule{
		dbConfig:  dbConfig,
		jwtConfig: jwtConfig,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the user store and builds the auth service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbConfig)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewUserRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.jwt = NewJWTManager(m.jwtConfig)
	m.service = NewAuthService(repo, NewPasswordHasher(), m.jwt)

	log.Printf("[auth] Module started (driver: %s)", m.dbConfig.Driver)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[auth] Error closing database: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.dbConfig.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, validate-token, get-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		return m.sessionFailure(err)
	}
	log.Printf("[auth] Registered user %s", session.User.ID)
	return m.toSessionResponse(session), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return m.sessionFailure(err)
	}
	return m.toSessionResponse(session), nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// Rejections are a normal outcome, not a service failure.
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		if env := apperror.Wrap(err, serviceErrors); env != nil {
			return GetUserResponse{Error: env}, nil
		}
		return GetUserResponse{}, err
	}

	return GetUserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *AuthModule) sessionFailure(err error) (SessionResponse, error) {
	if env := apperror.Wrap(err, serviceErrors); env != nil {
		return SessionResponse{Error: env}, nil
	}
	log.Printf("[auth] Error: %v", err)
	return SessionResponse{}, err
}

func (m *AuthModule) toSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		ID:        s.User.ID,
		FullName:  s.User.FullName,
		Email:     s.User.Email,
		CreatedAt: s.User.CreatedAt,
		Token:     s.Token,
		ExpiresIn: m.jwt.TokenDuration(),
	}
}
