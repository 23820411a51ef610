package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository stores tasks with GORM. Every method is scoped to one
// owner; rows of other owners are never read or written.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Migrate creates or updates the tasks table and fills the search columns
// of rows written before they existed.
func (r *TaskRepository) Migrate() error {
	if err := r.db.AutoMigrate(&domain.Task{}); err != nil {
		return err
	}

	var batch []domain.Task
	return r.db.Where("title_lc = '' OR title_lc IS NULL").
		FindInBatches(&batch, 100, func(_ *gorm.DB, _ int) error {
			for _, t := range batch {
				err := r.db.Model(&domain.Task{}).
					Where("id = ?", t.ID).
					UpdateColumns(map[string]any{
						"title_lc":       strings.ToLower(t.Title),
						"description_lc": strings.ToLower(t.Description),
					}).Error
				if err != nil {
					return fmt.Errorf("failed to backfill task %s: %w", t.ID, err)
				}
			}
			return nil
		}).Error
}

// Create saves a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	task.TitleLC = strings.ToLower(task.Title)
	task.DescriptionLC = strings.ToLower(task.Description)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindOwned returns the task with id if ownerID owns it.
func (r *TaskRepository) FindOwned(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List returns one page of the owner's tasks matching q and the total
// number of matching tasks. q must be normalized.
func (r *TaskRepository) List(ctx context.Context, ownerID string, q domain.ListQuery) ([]domain.Task, int64, error) {
	var total int64
	if err := r.filtered(ctx, ownerID, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if int64(q.Offset()) >= total {
		return []domain.Task{}, total, nil
	}

	tasks := make([]domain.Task, 0, q.Limit)
	err := r.filtered(ctx, ownerID, q).
		Order(clause.OrderByColumn{
			Column: clause.Column{Name: q.SortColumn()},
			Desc:   q.Descending(),
		}).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateOwned writes cols to the owner's task.
func (r *TaskRepository) UpdateOwned(ctx context.Context, ownerID, id string, cols map[string]any) error {
	if title, ok := cols["title"].(string); ok {
		cols["title_lc"] = strings.ToLower(title)
	}
	if desc, ok := cols["description"].(string); ok {
		cols["description_lc"] = strings.ToLower(desc)
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwned removes the owner's task.
func (r *TaskRepository) DeleteOwned(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns per-status counts of the owner's tasks.
func (r *TaskRepository) CountByStatus(ctx context.Context, ownerID string) (domain.Stats, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	var stats domain.Stats
	for _, row := range rows {
		stats.Add(row.Status, row.Count)
	}
	return stats, nil
}

// filtered builds the owner-scoped predicate shared by the page query and
// the count: owner AND exact filters AND (title LIKE OR description LIKE).
// Search runs on the lower-cased columns because SQLite's LOWER only folds
// ASCII.
func (r *TaskRepository) filtered(ctx context.Context, ownerID string, q domain.ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&domain.Task{}).Where("owner_id = ?", ownerID)

	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		tx = tx.Where("priority = ?", q.Priority)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		tx = tx.Where(
			`(title_lc LIKE ? ESCAPE '\' OR description_lc LIKE ? ESCAPE '\')`,
			pattern, pattern,
		)
	}
	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
