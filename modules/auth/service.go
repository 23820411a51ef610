package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned when login credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	maxFullNameLength = 50
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

// Session is an authenticated user together with the token issued for it.
type Session struct {
	User  *domain.User
	Token string
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*Session, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)

	var verr apperror.ValidationError
	switch {
	case fullName == "":
		verr.Add("fullName", "Full name is required")
	case utf8.RuneCountInString(fullName) > maxFullNameLength:
		verr.Add("fullName", "Full name cannot be more than 50 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Please provide a valid email")
	}
	switch {
	case len(password) < minPasswordLength:
		verr.Add("password", "Password must be at least 6 characters")
	case len(password) > maxPasswordLength:
		verr.Add("password", "Password cannot be more than 72 characters")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	var verr apperror.ValidationError
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Please provide a valid email")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ValidateToken validates a session token and returns its claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
