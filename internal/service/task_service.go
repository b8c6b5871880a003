package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

type taskStore interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	AddDescription(ctx context.Context, entry *models.TaskDescription) error
	ListDescriptions(ctx context.Context, taskID string) ([]models.TaskDescription, error)
}

// TaskService manages tasks and their append-only action log.
type TaskService struct {
	repo      taskStore
	validator schemaValidator
	schemas   *SchemaRegistry
	audit     auditLogger
	logger    *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(repo taskStore, validator schemaValidator, schemas *SchemaRegistry, audit auditLogger, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &TaskService{repo: repo, validator: validator, schemas: schemas, audit: audit, logger: logger}
}

// Create opens a task owned by the acting user.
func (s *TaskService) Create(ctx context.Context, req dto.CreateTaskRequest, actorID string) (*models.Task, error) {
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaTask, req); err != nil {
		return nil, err
	}
	task := &models.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actorID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// List returns tasks matching filter.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a task with its action log in insertion order.
func (s *TaskService) Get(ctx context.Context, id string) (*dto.TaskDetail, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListDescriptions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task descriptions")
	}
	return &dto.TaskDetail{Task: *task, Descriptions: entries}, nil
}

// Descriptions returns only the action log.
func (s *TaskService) Descriptions(ctx context.Context, id string) ([]models.TaskDescription, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListDescriptions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task descriptions")
	}
	return entries, nil
}

// AddDescription appends an action to the log. Any action may follow any other.
func (s *TaskService) AddDescription(ctx context.Context, taskID string, req dto.TaskActionRequest, actorID string) (*models.TaskDescription, error) {
	if _, err := s.find(ctx, taskID); err != nil {
		return nil, err
	}
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaTaskDescription, req); err != nil {
		return nil, err
	}
	entry := &models.TaskDescription{
		TaskID:      taskID,
		UserID:      actorID,
		Action:      models.TaskAction(req.Action),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.AddDescription(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add task description")
	}

	actor := actorID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionTaskAction,
		Resource:   "tasks",
		ResourceID: &entry.TaskID,
		NewValues:  auditPayload(map[string]interface{}{"action": entry.Action, "entry_id": entry.ID}),
	})
	return entry, nil
}

func (s *TaskService) find(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}
