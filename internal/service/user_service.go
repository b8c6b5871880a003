package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	"github.com/noah-isme/erp-api/pkg/cache"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/validation"
)

const (
	msgParentInvalid = "The selected parent_id is invalid."
	msgParentCycle   = "The parent_id would create a cycle in the reporting hierarchy."
	hierarchyTTL     = 10 * time.Minute
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) ([]hierarchy.Change, error)
	AssignParent(ctx context.Context, userID string, parentID *string) ([]hierarchy.Change, error)
	ListHierarchyNodes(ctx context.Context) ([]models.HierarchyNode, error)
	RebuildLevels(ctx context.Context) ([]hierarchy.Change, []hierarchy.Violation, error)
	Subordinates(ctx context.Context, userID string) ([]models.Subordinate, error)
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService handles user management and the reporting hierarchy.
type UserService struct {
	repo      userRepository
	validator schemaValidator
	schemas   *SchemaRegistry
	cache     *CacheService
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validator schemaValidator, schemas *SchemaRegistry, cache *CacheService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New(nil)
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &UserService{repo: repo, validator: validator, schemas: schemas, cache: cache, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userLoadError(err)
	}
	return user, nil
}

// Create adds a new user. When a parent is given the level is derived from it.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	if err := s.validate(ctx, SchemaUserCreate, req); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.UserRole(req.Role),
		Active:       true,
		DepartmentID: req.DepartmentID,
		ParentID:     req.ParentID,
		PasswordHash: string(passwordHash),
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, hierarchyError(err, "failed to create user")
	}

	if user.ParentID != nil {
		s.invalidateHierarchy(ctx)
	}
	s.recordAudit(ctx, actorID, models.AuditActionUserCreate, user.ID, nil,
		map[string]interface{}{"email": user.Email, "role": user.Role, "parent_id": user.ParentID, "hierarchy_level": user.HierarchyLevel}, meta)
	return user, nil
}

// Update modifies the fields present in req. Moving the user to another
// parent cascades new levels to the whole subtree.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	if err := s.validate(ctx, SchemaUserUpdate, req, validation.Partial(), validation.IgnoreID(id)); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userLoadError(err)
	}
	old := map[string]interface{}{"role": user.Role, "active": user.Active, "parent_id": user.ParentID, "hierarchy_level": user.HierarchyLevel}

	if req.FullName != "" {
		user.FullName = strings.TrimSpace(req.FullName)
	}
	if req.Role != "" {
		user.Role = models.UserRole(req.Role)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if req.ParentID != nil {
		user.ParentID = req.ParentID
	}

	changes, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, hierarchyError(err, "failed to update user")
	}
	if req.ParentID != nil {
		s.invalidateHierarchy(ctx)
		s.logCascade(id, changes)
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserUpdate, user.ID, old,
		map[string]interface{}{"role": user.Role, "active": user.Active, "parent_id": user.ParentID, "hierarchy_level": user.HierarchyLevel, "cascaded": len(changes)}, meta)
	return user, nil
}

// AssignParent moves a user under parentID, or makes it a root when nil, and
// returns every level that changed.
func (s *UserService) AssignParent(ctx context.Context, id string, parentID *string, actorID string, meta models.LoginRequest) ([]hierarchy.Change, error) {
	if parentID != nil {
		if _, err := uuid.Parse(*parentID); err != nil {
			return nil, appErrors.FieldError("parent_id", "The parent_id must be a valid UUID.")
		}
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userLoadError(err)
	}

	changes, err := s.repo.AssignParent(ctx, id, parentID)
	if err != nil {
		return nil, hierarchyError(err, "failed to assign parent")
	}
	s.invalidateHierarchy(ctx)
	s.logCascade(id, changes)

	s.recordAudit(ctx, actorID, models.AuditActionUserUpdate, id,
		map[string]interface{}{"parent_id": user.ParentID, "hierarchy_level": user.HierarchyLevel},
		map[string]interface{}{"parent_id": parentID, "changed": len(changes)}, meta)
	return changes, nil
}

// Subordinates returns every transitive report of a user.
func (s *UserService) Subordinates(ctx context.Context, id string) ([]models.Subordinate, bool, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, false, userLoadError(err)
	}
	subs, hit, err := remember(ctx, s.cache, cache.Key("hierarchy", "subordinates", id), hierarchyTTL, func(ctx context.Context) ([]models.Subordinate, error) {
		return s.repo.Subordinates(ctx, id)
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subordinates")
	}
	return subs, hit, nil
}

// RebuildHierarchy recomputes every hierarchy level from the roots.
func (s *UserService) RebuildHierarchy(ctx context.Context, actorID string, meta models.LoginRequest) ([]hierarchy.Change, []hierarchy.Violation, error) {
	changes, violations, err := s.repo.RebuildLevels(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rebuild hierarchy")
	}
	s.invalidateHierarchy(ctx)
	s.logger.Info("hierarchy rebuilt", zap.Int("updated", len(changes)), zap.Int("violations", len(violations)))
	for _, v := range violations {
		s.logger.Warn("hierarchy violation left untouched", zap.String("user_id", v.ID), zap.String("reason", v.Reason))
	}

	s.recordAudit(ctx, actorID, models.AuditActionHierarchyRebuild, "", nil,
		map[string]interface{}{"updated": len(changes), "violations": len(violations)}, meta)
	return changes, violations, nil
}

// CheckHierarchy reports stored levels that break the parent plus one rule
// without modifying anything.
func (s *UserService) CheckHierarchy(ctx context.Context) ([]hierarchy.Violation, error) {
	nodes, err := s.repo.ListHierarchyNodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hierarchy")
	}
	return hierarchy.Check(nodes), nil
}

// Delete performs a soft delete (inactive) on a user.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return userLoadError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserDelete, user.ID,
		map[string]interface{}{"active": user.Active}, map[string]interface{}{"active": false}, meta)
	return nil
}

func (s *UserService) validate(ctx context.Context, schemaName string, payload interface{}, opts ...validation.Option) error {
	return validatePayload(ctx, s.validator, s.schemas, schemaName, payload, opts...)
}

func (s *UserService) invalidateHierarchy(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cache.Key("hierarchy", "*"))
}

func (s *UserService) logCascade(id string, changes []hierarchy.Change) {
	if len(changes) == 0 {
		return
	}
	s.logger.Info("hierarchy levels cascaded", zap.String("user_id", id), zap.Int("changed", len(changes)))
}

func (s *UserService) recordAudit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues map[string]interface{}, meta models.LoginRequest) {
	actor := actorID
	entry := &models.AuditLog{
		UserID:    &actor,
		Action:    action,
		Resource:  "users",
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if oldValues != nil {
		entry.OldValues = auditPayload(oldValues)
	}
	if newValues != nil {
		entry.NewValues = auditPayload(newValues)
	}
	emitAudit(ctx, s.repo, s.logger, entry)
}

func userLoadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
}

// hierarchyError maps hierarchy rejections onto parent_id field errors.
func hierarchyError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	case errors.Is(err, repository.ErrParentNotFound):
		return appErrors.FieldError("parent_id", msgParentInvalid)
	case errors.Is(err, hierarchy.ErrCycle), errors.Is(err, hierarchy.ErrSelfParent):
		return appErrors.FieldError("parent_id", msgParentCycle)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
