package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/validation"
)

type departmentStore interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, item *models.Department) error
	Update(ctx context.Context, item *models.Department) error
	Delete(ctx context.Context, id string) error
}

// DepartmentService manages the organisational chart.
type DepartmentService struct {
	repo      departmentStore
	validator schemaValidator
	schemas   *SchemaRegistry
	audit     auditLogger
	logger    *zap.Logger
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo departmentStore, validator schemaValidator, schemas *SchemaRegistry, audit auditLogger, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &DepartmentService{repo: repo, validator: validator, schemas: schemas, audit: audit, logger: logger}
}

func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return items, buildPagination(filter.Page, filter.PageSize, total), nil
}

func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, departmentError(err, "failed to load department")
	}
	return item, nil
}

// Create stores a department. The code must be unique.
func (s *DepartmentService) Create(ctx context.Context, req dto.DepartmentRequest, actorID string) (*models.Department, error) {
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaDepartment, req); err != nil {
		return nil, err
	}
	item := &models.Department{
		Name:      strings.TrimSpace(req.Name),
		Code:      strings.TrimSpace(req.Code),
		ParentID:  req.ParentID,
		ManagerID: req.ManagerID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, departmentError(err, "failed to create department")
	}
	s.record(ctx, actorID, item, "create")
	return item, nil
}

// Update applies the fields present in req.
func (s *DepartmentService) Update(ctx context.Context, id string, req dto.DepartmentRequest, actorID string) (*models.Department, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, departmentError(err, "failed to load department")
	}
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaDepartment, req, validation.Partial(), validation.IgnoreID(id)); err != nil {
		return nil, err
	}
	if req.ParentID != nil && *req.ParentID == id {
		return nil, appErrors.FieldError("parent_id", "The parent_id and id must be different.")
	}
	if req.Name != "" {
		item.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		item.Code = strings.TrimSpace(req.Code)
	}
	if req.ParentID != nil {
		item.ParentID = req.ParentID
	}
	if req.ManagerID != nil {
		item.ManagerID = req.ManagerID
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, departmentError(err, "failed to update department")
	}
	s.record(ctx, actorID, item, "update")
	return item, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return departmentError(err, "failed to delete department")
	}
	s.record(ctx, actorID, &models.Department{ID: id}, "delete")
	return nil
}

func (s *DepartmentService) record(ctx context.Context, actorID string, item *models.Department, op string) {
	actor := actorID
	id := item.ID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionDepartmentWrite,
		Resource:   "departments",
		ResourceID: &id,
		NewValues:  auditPayload(map[string]interface{}{"op": op, "code": item.Code, "name": item.Name}),
	})
}

func departmentError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "department not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.FieldError("code", "The code has already been taken.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
