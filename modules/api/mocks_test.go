package api

import (
	"context"
	"errors"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
)

var errNotImplemented = errors.New("not implemented")

// mockAuthPort implements auth.AuthPort for testing.
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, fullName, email, password string) (*auth.Session, error)
	loginFunc         func(ctx context.Context, email, password string) (*auth.Session, error)
	validateTokenFunc func(ctx context.Context, token string) (*user.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*user.User, error)
}

func (m *mockAuthPort) Register(ctx context.Context, fullName, email, password string) (*auth.Session, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, fullName, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*user.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*user.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

// mockTaskPort implements task.TaskPort for testing.
type mockTaskPort struct {
	createFunc func(ctx context.Context, ownerID string, in task.Input) (*domain.Task, error)
	getFunc    func(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	listFunc   func(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error)
	updateFunc func(ctx context.Context, ownerID, taskID string, in task.Input) (*domain.Task, error)
	deleteFunc func(ctx context.Context, ownerID, taskID string) error
	statsFunc  func(ctx context.Context, ownerID string) (domain.Stats, error)
}

func (m *mockTaskPort) Create(ctx context.Context, ownerID string, in task.Input) (*domain.Task, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, ownerID, in)
	}
	return nil, errNotImplemented
}

func (m *mockTaskPort) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID, taskID)
	}
	return nil, errNotImplemented
}

func (m *mockTaskPort) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID, q)
	}
	return nil, errNotImplemented
}

func (m *mockTaskPort) Update(ctx context.Context, ownerID, taskID string, in task.Input) (*domain.Task, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, ownerID, taskID, in)
	}
	return nil, errNotImplemented
}

func (m *mockTaskPort) Delete(ctx context.Context, ownerID, taskID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, taskID)
	}
	return errNotImplemented
}

func (m *mockTaskPort) Stats(ctx context.Context, ownerID string) (domain.Stats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, ownerID)
	}
	return domain.Stats{}, errNotImplemented
}

// validTokenAuth accepts the token "good" for user-1.
func validTokenAuth() *mockAuthPort {
	return &mockAuthPort{
		validateTokenFunc: func(_ context.Context, token string) (*user.Claims, error) {
			if token == "good" {
				return &user.Claims{UserID: "user-1", Email: "ada@example.com"}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}
