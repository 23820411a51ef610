package task

import (
	"context"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/google/uuid"
)

// Publisher is notified after each successful mutation.
type Publisher interface {
	TaskCreated(task domain.Task)
	TaskUpdated(task domain.Task, fields []string)
	TaskDeleted(ownerID, taskID string)
}

// StatsCache memoizes per-owner stats.
type StatsCache interface {
	Stats(ctx context.Context, ownerID string, load func(context.Context) (domain.Stats, error)) (domain.Stats, error)
	Invalidate(ctx context.Context, ownerID string)
}

// TaskService holds the task business rules. Every operation takes the
// caller's user id and only ever sees that user's tasks.
type TaskService struct {
	repo      *TaskRepository
	publisher Publisher
	cache     StatsCache
	now       func() time.Time
}

// NewTaskService creates a TaskService. publisher and cache may be nil.
func NewTaskService(repo *TaskRepository, publisher Publisher, cache StatsCache) *TaskService {
	return &TaskService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		now:       time.Now,
	}
}

// Create validates in and stores a new task owned by ownerID, filling
// defaults for omitted fields.
func (s *TaskService) Create(ctx context.Context, ownerID string, in Input) (*domain.Task, error) {
	c, err := validate(in, true)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &domain.Task{
		ID:        uuid.New().String(),
		Title:     *c.title,
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		Type:      domain.TypePersonal,
		DueDate:   c.dueDate,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.description != nil {
		task.Description = *c.description
	}
	if c.status != nil {
		task.Status = *c.status
	}
	if c.priority != nil {
		task.Priority = *c.priority
	}
	if c.typ != nil {
		task.Type = *c.typ
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	if s.publisher != nil {
		s.publisher.TaskCreated(*task)
	}
	return task, nil
}

// Get returns the task if ownerID owns it.
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return s.repo.FindOwned(ctx, ownerID, id)
}

// List returns one page of the owner's tasks.
func (s *TaskService) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error) {
	q = q.Normalize()

	tasks, total, err := s.repo.List(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}

	return &domain.ListResult{
		Tasks: tasks,
		Pagination: domain.Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: domain.PageCount(total, q.Limit),
		},
	}, nil
}

// Update applies a partial update. Input is validated first and ownership
// is checked before anything is written.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, in Input) (*domain.Task, error) {
	c, err := validate(in, false)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindOwned(ctx, ownerID, id); err != nil {
		return nil, err
	}

	cols, fields := c.columns()
	if len(cols) > 0 {
		cols["updated_at"] = s.now().UTC()
		if err := s.repo.UpdateOwned(ctx, ownerID, id, cols); err != nil {
			return nil, err
		}
	}

	task, err := s.repo.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		s.invalidate(ctx, ownerID)
		if s.publisher != nil {
			s.publisher.TaskUpdated(*task, fields)
		}
	}
	return task, nil
}

// Delete removes the owner's task.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.repo.FindOwned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteOwned(ctx, ownerID, id); err != nil {
		return err
	}

	s.invalidate(ctx, ownerID)
	if s.publisher != nil {
		s.publisher.TaskDeleted(ownerID, id)
	}
	return nil
}

// Stats returns per-status counts for the owner, through the cache when
// one is configured.
func (s *TaskService) Stats(ctx context.Context, ownerID string) (domain.Stats, error) {
	load := func(ctx context.Context) (domain.Stats, error) {
		return s.repo.CountByStatus(ctx, ownerID)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Stats(ctx, ownerID, load)
}

func (s *TaskService) invalidate(ctx context.Context, ownerID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ownerID)
	}
}
