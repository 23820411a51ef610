package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Not authorized, no token"`,
		},
		{
			name:           "not a bearer token",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Not authorized, no token"`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer forged",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Not authorized, token failed"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer good",
			expectedStatus: http.StatusOK,
			expectedBody:   `"user-1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(validTokenAuth()))
			app.Get("/test", func(c *fiber.Ctx) error {
				claims, _ := c.Locals(UserContextKey).(*user.Claims)
				return c.JSON(fiber.Map{"user": claims.UserID})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %s, want it to contain %s", body, tt.expectedBody)
			}
		})
	}
}

func TestAuthMiddleware_TokenCheckFailures(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "expired token",
			err:            auth.ErrExpiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Not authorized, token failed"`,
		},
		{
			name:           "wrapped invalid token",
			err:            fmt.Errorf("check: %w", auth.ErrInvalidToken),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Not authorized, token failed"`,
		},
		{
			name:           "auth service unreachable",
			err:            fmt.Errorf("validate-token request failed: %w", errors.New("nats: timeout")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Server error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authPort := &mockAuthPort{
				validateTokenFunc: func(context.Context, string) (*user.Claims, error) {
					return nil, tt.err
				},
			}

			app := fiber.New()
			app.Use(AuthMiddleware(authPort))
			app.Get("/test", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer t")

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %s, want it to contain %s", body, tt.expectedBody)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "Bearer  abc ", want: "abc", ok: true},
		{header: "Bearer ", ok: false},
		{header: "bearer abc", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuthMiddleware_PassesRequestContext(t *testing.T) {
	type ctxKey struct{}
	var seen any

	authPort := &mockAuthPort{
		validateTokenFunc: func(ctx context.Context, _ string) (*user.Claims, error) {
			seen = ctx.Value(ctxKey{})
			return &user.Claims{UserID: "u"}, nil
		},
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(context.WithValue(c.UserContext(), ctxKey{}, "req-1"))
		return c.Next()
	})
	app.Use(AuthMiddleware(authPort))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if seen != "req-1" {
		t.Errorf("ValidateToken ctx value = %v, want req-1", seen)
	}
}
