package api

import (
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	authAdapter auth.AuthPort
	taskAdapter task.TaskPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, taskAdapter task.TaskPort) *Handlers {
	return &Handlers{
		authAdapter: authAdapter,
		taskAdapter: taskAdapter,
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
}

func notAuthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Not authorized, no token"})
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toSessionResponse(s *auth.Session) SessionResponse {
	return SessionResponse{UserResponse: toUserResponse(s.User), Token: s.Token}
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	session, err := h.authAdapter.Register(c.UserContext(), req.FullName, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	session, err := h.authAdapter.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// Profile handles GET /api/auth/profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	u, err := h.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toUserResponse(u))
}

// CreateTask handles POST /api/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	var in task.Input
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}

	t, err := h.taskAdapter.Create(c.UserContext(), claims.UserID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// ListTasks handles GET /api/tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	q := domain.ListQuery{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Type:      c.Query("type"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy", domain.DefaultSortBy),
		SortOrder: c.Query("sortOrder", domain.SortDesc),
		Page:      domain.ParsePositiveInt(c.Query("page"), domain.DefaultPage),
		Limit:     domain.ParsePositiveInt(c.Query("limit"), domain.DefaultLimit),
	}

	result, err := h.taskAdapter.List(c.UserContext(), claims.UserID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// TaskStats handles GET /api/tasks/stats.
func (h *Handlers) TaskStats(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	stats, err := h.taskAdapter.Stats(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	t, err := h.taskAdapter.Get(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(t)
}

// UpdateTask handles PUT /api/tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	var in task.Input
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}

	t, err := h.taskAdapter.Update(c.UserContext(), claims.UserID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(t)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return notAuthorized(c)
	}

	if err := h.taskAdapter.Delete(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Task removed successfully"})
}
