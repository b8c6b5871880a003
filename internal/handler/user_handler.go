package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error)
	AssignParent(ctx context.Context, id string, parentID *string, actorID string, meta models.LoginRequest) ([]hierarchy.Change, error)
	Subordinates(ctx context.Context, id string) ([]models.Subordinate, bool, error)
	RebuildHierarchy(ctx context.Context, actorID string, meta models.LoginRequest) ([]hierarchy.Change, []hierarchy.Violation, error)
	CheckHierarchy(ctx context.Context) ([]hierarchy.Violation, error)
	Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error
}

// UserHandler handles user CRUD and reporting hierarchy endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with pagination and filtering
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter"
// @Param active query bool false "Active filter"
// @Param department_id query string false "Department filter"
// @Param parent_id query string false "Direct reports of a user"
// @Param search query string false "Search term"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	filter.Page, filter.PageSize = pageParams(c)

	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.DepartmentID = c.Query("department_id")
	filter.ParentID = c.Query("parent_id")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create user
// @Description Create a user; hierarchy_level is derived from parent_id
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "Create user payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if models.UserRole(req.Role) == models.RoleSuperAdmin && !claims.HasRole(models.RoleSuperAdmin) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only a superadmin may grant the SUPERADMIN role"))
		return
	}

	user, err := h.service.Create(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Update godoc
// @Summary Update user
// @Description Update user details; a parent change cascades levels to every subordinate
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Privileged() && !claims.HasRole(models.RoleAdmin, models.RoleSuperAdmin) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only administrators may change role, active, department_id or parent_id"))
		return
	}
	if models.UserRole(req.Role) == models.RoleSuperAdmin && !claims.HasRole(models.RoleSuperAdmin) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only a superadmin may grant the SUPERADMIN role"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// AssignParent godoc
// @Summary Move user in the hierarchy
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.AssignParentRequest true "New parent"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id}/parent [put]
func (h *UserHandler) AssignParent(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.AssignParentRequest
	if !bindJSON(c, &req) {
		return
	}

	changes, err := h.service.AssignParent(c.Request.Context(), c.Param("id"), req.ParentID, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, changes, nil, map[string]interface{}{"updated": len(changes)})
}

// Subordinates godoc
// @Summary List every transitive subordinate of a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/subordinates [get]
func (h *UserHandler) Subordinates(c *gin.Context) {
	subs, hit, err := h.service.Subordinates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, nil, withCacheMeta(c, hit))
}

// RebuildHierarchy godoc
// @Summary Recompute every hierarchy level from the roots
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hierarchy/rebuild [post]
func (h *UserHandler) RebuildHierarchy(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	changes, violations, err := h.service.RebuildHierarchy(c.Request.Context(), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"summary":    dto.HierarchyRebuildResult{Updated: len(changes), Violations: len(violations)},
		"changes":    changes,
		"violations": violations,
	}, nil)
}

// CheckHierarchy godoc
// @Summary Report users violating the level invariant
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hierarchy/violations [get]
func (h *UserHandler) CheckHierarchy(c *gin.Context) {
	violations, err := h.service.CheckHierarchy(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, violations, nil)
}

// Delete godoc
// @Summary Delete user
// @Description Soft delete user by marking inactive
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
