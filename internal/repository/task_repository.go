package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
)

// TaskRepository stores tasks and their append-only action log.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO tasks (id, title, description, assigned_to, created_by, created_at) VALUES (:id, :title, :description, :assigned_to, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID returns a task.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	const query = `SELECT id, title, description, assigned_to, created_by, created_at FROM tasks WHERE id = $1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// List returns tasks filtered by assignee or creator.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 2)
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		where += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where += fmt.Sprintf(" AND created_by = $%d", len(args))
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	tasks := make([]models.Task, 0)
	query := fmt.Sprintf("SELECT id, title, description, assigned_to, created_by, created_at FROM tasks%s ORDER BY created_at DESC LIMIT %d OFFSET %d", where, limit, offset)
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tasks"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

// AddDescription appends an action entry to a task's log.
func (r *TaskRepository) AddDescription(ctx context.Context, entry *models.TaskDescription) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO task_descriptions (id, task_id, user_id, action, description, created_at) VALUES (:id, :task_id, :user_id, :action, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create task description: %w", err)
	}
	return nil
}

// ListDescriptions returns a task's log oldest first.
func (r *TaskRepository) ListDescriptions(ctx context.Context, taskID string) ([]models.TaskDescription, error) {
	const query = `SELECT id, task_id, user_id, action, description, created_at FROM task_descriptions WHERE task_id = $1 ORDER BY created_at ASC`
	entries := make([]models.TaskDescription, 0)
	if err := r.db.SelectContext(ctx, &entries, query, taskID); err != nil {
		return nil, fmt.Errorf("list task descriptions: %w", err)
	}
	return entries, nil
}
