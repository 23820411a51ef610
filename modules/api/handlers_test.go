package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/task-manager/config"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/realtime"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(authPort auth.AuthPort, taskPort task.TaskPort) *fiber.App {
	m := NewModule(config.HTTPConfig{Address: ":0", AllowOrigins: "*", BodyLimit: 1 << 20})
	m.authAdapter = authPort
	m.taskAdapter = taskPort
	return m.newApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	}
	return resp.StatusCode, out
}

var testSession = &auth.Session{
	User: &user.User{
		ID:        "user-1",
		FullName:  "Ada Lovelace",
		Email:     "ada@example.com",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	},
	Token: "jwt-token",
}

func TestRegister(t *testing.T) {
	authPort := &mockAuthPort{
		registerFunc: func(_ context.Context, fullName, email, password string) (*auth.Session, error) {
			switch email {
			case "taken@example.com":
				return nil, auth.ErrUserExists
			case "bad":
				ve := &apperror.ValidationError{}
				ve.Add("email", "Please provide a valid email")
				ve.Add("password", "Password must be at least 6 characters")
				return nil, ve
			}
			assert.Equal(t, "Ada Lovelace", fullName)
			assert.Equal(t, "secret1", password)
			return testSession, nil
		},
	}
	app := newTestApp(authPort, &mockTaskPort{})

	t.Run("created", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/auth/register",
			`{"fullName":"Ada Lovelace","email":"ada@example.com","password":"secret1"}`, "")
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "user-1", body["_id"])
		assert.Equal(t, "Ada Lovelace", body["fullName"])
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "jwt-token", body["token"])
		assert.Equal(t, "2024-01-02T03:04:05Z", body["createdAt"])
		assert.NotContains(t, body, "password")
	})

	t.Run("validation", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/auth/register",
			`{"fullName":"Ada","email":"bad","password":"x"}`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Validation failed", body["message"])
		errs := body["errors"].([]any)
		require.Len(t, errs, 2)
		first := errs[0].(map[string]any)
		assert.Equal(t, "Please provide a valid email", first["msg"])
		assert.Equal(t, "email", first["path"])
		assert.Equal(t, "body", first["location"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/auth/register",
			`{"fullName":"Ada","email":"taken@example.com","password":"secret1"}`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "User already exists", body["message"])
	})

	t.Run("malformed body", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/auth/register", `{"email":`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Invalid request body", body["message"])
	})
}

func TestLogin(t *testing.T) {
	authPort := &mockAuthPort{
		loginFunc: func(_ context.Context, email, password string) (*auth.Session, error) {
			if password != "secret1" {
				return nil, auth.ErrInvalidCredentials
			}
			return testSession, nil
		},
	}
	app := newTestApp(authPort, &mockTaskPort{})

	status, body := doJSON(t, app, "POST", "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "jwt-token", body["token"])

	status, body = doJSON(t, app, "POST", "/api/auth/login", `{"email":"ada@example.com","password":"nope"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestLogin_RateLimited(t *testing.T) {
	m := NewModule(config.HTTPConfig{Address: ":0", AllowOrigins: "*"})
	m.authAdapter = &mockAuthPort{}
	m.taskAdapter = &mockTaskPort{}
	m.SetRateLimiter(limiterFunc(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many requests, please try again later"})
	}))
	app := m.newApp()

	status, _ := doJSON(t, app, "POST", "/api/auth/login", `{}`, "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	status, _ = doJSON(t, app, "POST", "/api/auth/register", `{}`, "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}

type limiterFunc fiber.Handler

func (f limiterFunc) AuthRateLimit() fiber.Handler { return fiber.Handler(f) }

func TestProfile(t *testing.T) {
	authPort := validTokenAuth()
	authPort.getUserFunc = func(_ context.Context, userID string) (*user.User, error) {
		if userID == "user-1" {
			return testSession.User, nil
		}
		return nil, auth.ErrUserNotFound
	}
	app := newTestApp(authPort, &mockTaskPort{})

	status, body := doJSON(t, app, "GET", "/api/auth/profile", "", "good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "user-1", body["_id"])
	assert.NotContains(t, body, "token")

	status, body = doJSON(t, app, "GET", "/api/auth/profile", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, no token", body["message"])
}

func TestCreateTask(t *testing.T) {
	var got task.Input
	taskPort := &mockTaskPort{
		createFunc: func(_ context.Context, ownerID string, in task.Input) (*domain.Task, error) {
			got = in
			if in.Title == nil {
				ve := &apperror.ValidationError{}
				ve.Add("title", "Task title is required")
				return nil, ve
			}
			return &domain.Task{ID: "t1", Title: *in.Title, OwnerID: ownerID, Status: domain.StatusPending}, nil
		},
	}
	app := newTestApp(validTokenAuth(), taskPort)

	status, body := doJSON(t, app, "POST", "/api/tasks", `{"title":"Buy milk","dueDate":null}`, "good")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "t1", body["_id"])
	assert.Equal(t, "user-1", body["user"])
	assert.Equal(t, "Pending", body["status"])
	assert.Nil(t, body["dueDate"])
	assert.Equal(t, json.RawMessage("null"), got.DueDate)

	status, body = doJSON(t, app, "POST", "/api/tasks", `{"description":"no title"}`, "good")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])

	status, _ = doJSON(t, app, "POST", "/api/tasks", `{"title":"x"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestListTasks_QueryParsing(t *testing.T) {
	var got domain.ListQuery
	taskPort := &mockTaskPort{
		listFunc: func(_ context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error) {
			assert.Equal(t, "user-1", ownerID)
			got = q
			return &domain.ListResult{
				Tasks:      []domain.Task{},
				Pagination: domain.Pagination{Page: q.Page, Limit: q.Limit},
			}, nil
		},
	}
	app := newTestApp(validTokenAuth(), taskPort)

	tests := []struct {
		name  string
		query string
		want  domain.ListQuery
	}{
		{
			name:  "defaults",
			query: "",
			want:  domain.ListQuery{SortBy: "createdAt", SortOrder: "desc", Page: 1, Limit: 10},
		},
		{
			name:  "everything",
			query: "?status=In%20Progress&priority=High&type=Work&search=foo&sortBy=title&sortOrder=asc&page=3&limit=25",
			want: domain.ListQuery{
				Status: "In Progress", Priority: "High", Type: "Work", Search: "foo",
				SortBy: "title", SortOrder: "asc", Page: 3, Limit: 25,
			},
		},
		{
			name:  "garbage paging falls back",
			query: "?page=abc&limit=-5",
			want:  domain.ListQuery{SortBy: "createdAt", SortOrder: "desc", Page: 1, Limit: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, "GET", "/api/tasks"+tt.query, "", "good")
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []any{}, body["tasks"])
			assert.Contains(t, body, "pagination")
		})
	}
}

func TestTaskStats_NotShadowedByID(t *testing.T) {
	taskPort := &mockTaskPort{
		statsFunc: func(context.Context, string) (domain.Stats, error) {
			return domain.Stats{Total: 3, Pending: 1, InProgress: 2}, nil
		},
		getFunc: func(context.Context, string, string) (*domain.Task, error) {
			return nil, errors.New("get should not be called")
		},
	}
	app := newTestApp(validTokenAuth(), taskPort)

	status, body := doJSON(t, app, "GET", "/api/tasks/stats", "", "good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["inProgress"])
}

func TestGetUpdateDeleteTask(t *testing.T) {
	existing := &domain.Task{ID: "t1", Title: "Mine", OwnerID: "user-1"}
	taskPort := &mockTaskPort{
		getFunc: func(_ context.Context, _, id string) (*domain.Task, error) {
			if id != "t1" {
				return nil, task.ErrNotFound
			}
			return existing, nil
		},
		updateFunc: func(_ context.Context, _, id string, in task.Input) (*domain.Task, error) {
			if id != "t1" {
				return nil, task.ErrNotFound
			}
			if in.Title != nil && *in.Title == "" {
				ve := &apperror.ValidationError{}
				ve.Add("title", "Task title cannot be empty")
				return nil, ve
			}
			updated := *existing
			updated.Status = domain.StatusCompleted
			return &updated, nil
		},
		deleteFunc: func(_ context.Context, _, id string) error {
			switch id {
			case "t1":
				return nil
			case "boom":
				return errors.New("database is locked")
			}
			return task.ErrNotFound
		},
	}
	app := newTestApp(validTokenAuth(), taskPort)

	status, body := doJSON(t, app, "GET", "/api/tasks/t1", "", "good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Mine", body["title"])

	status, body = doJSON(t, app, "GET", "/api/tasks/other", "", "good")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Task not found", body["message"])

	status, body = doJSON(t, app, "PUT", "/api/tasks/t1", `{"status":"Completed"}`, "good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Completed", body["status"])

	status, body = doJSON(t, app, "PUT", "/api/tasks/t1", `{"title":""}`, "good")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])

	status, _ = doJSON(t, app, "PUT", "/api/tasks/other", `{"status":"Completed"}`, "good")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = doJSON(t, app, "DELETE", "/api/tasks/t1", "", "good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Task removed successfully", body["message"])

	status, _ = doJSON(t, app, "DELETE", "/api/tasks/other", "", "good")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = doJSON(t, app, "DELETE", "/api/tasks/boom", "", "good")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Server error", body["message"])
}

type stubHealth struct {
	status mono.HealthStatus
}

func (s stubHealth) Health(context.Context) mono.HealthStatus { return s.status }

func TestHealth(t *testing.T) {
	m := NewModule(config.HTTPConfig{Address: ":0", AllowOrigins: "*"})
	m.authAdapter = &mockAuthPort{}
	m.taskAdapter = &mockTaskPort{}
	m.AddHealthCheck("task", stubHealth{mono.HealthStatus{Healthy: true, Message: "operational"}})
	app := m.newApp()

	status, body := doJSON(t, app, "GET", "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	m.AddHealthCheck("cache", stubHealth{mono.HealthStatus{Healthy: false, Message: "redis ping failed"}})
	status, body = doJSON(t, app, "GET", "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "degraded", body["status"])
	modules := body["modules"].(map[string]any)
	assert.Equal(t, false, modules["cache"].(map[string]any)["healthy"])
	assert.Equal(t, []string{"cache", "task"}, m.moduleNames())
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	m := NewModule(config.HTTPConfig{Address: ":0", AllowOrigins: "*"})
	m.authAdapter = validTokenAuth()
	m.taskAdapter = &mockTaskPort{}
	m.SetHub(realtime.NewHub())
	app := m.newApp()

	status, _ := doJSON(t, app, "GET", "/ws?token=good", "", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestWebSocket_TokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		err     error
		status  int
		message string
	}{
		{name: "no token", status: fiber.StatusUnauthorized, message: "Not authorized, no token"},
		{name: "rejected token", token: "bad", err: auth.ErrInvalidToken, status: fiber.StatusUnauthorized, message: "Not authorized, token failed"},
		{name: "auth service down", token: "any", err: errors.New("validate-token request failed"), status: fiber.StatusInternalServerError, message: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(config.HTTPConfig{Address: ":0", AllowOrigins: "*"})
			m.authAdapter = &mockAuthPort{
				validateTokenFunc: func(context.Context, string) (*user.Claims, error) {
					return nil, tt.err
				},
			}
			m.taskAdapter = &mockTaskPort{}
			m.SetHub(realtime.NewHub())
			app := m.newApp()

			req := httptest.NewRequest("GET", "/ws?token="+tt.token, nil)
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
			req.Header.Set("Sec-WebSocket-Version", "13")
			req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.message)
		})
	}
}
