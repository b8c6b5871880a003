package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/response"
)

type departmentService interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, req dto.DepartmentRequest, actorID string) (*models.Department, error)
	Update(ctx context.Context, id string, req dto.DepartmentRequest, actorID string) (*models.Department, error)
	Delete(ctx context.Context, id, actorID string) error
}

type warehouseService interface {
	List(ctx context.Context, filter models.WarehouseFilter) ([]models.Warehouse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Warehouse, error)
	Create(ctx context.Context, req dto.WarehouseRequest, actorID string) (*models.Warehouse, error)
	Update(ctx context.Context, id string, req dto.WarehouseRequest, actorID string) (*models.Warehouse, error)
	Delete(ctx context.Context, id, actorID string) error
	CreateTransfer(ctx context.Context, req dto.TransferRequest, actorID string) (*models.InventoryTransfer, error)
	ListTransfers(ctx context.Context, filter models.WarehouseFilter) ([]models.InventoryTransfer, *models.Pagination, error)
}

// DepartmentHandler manages departments.
type DepartmentHandler struct {
	service departmentService
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(svc departmentService) *DepartmentHandler {
	return &DepartmentHandler{service: svc}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Param search query string false "Name or code"
// @Param parent_id query string false "Parent department"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	filter := models.DepartmentFilter{Search: c.Query("search"), ParentID: c.Query("parent_id")}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Show department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body dto.DepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.DepartmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete department
// @Tags Departments
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// WarehouseHandler manages warehouses and stock transfers between them.
type WarehouseHandler struct {
	service warehouseService
}

// NewWarehouseHandler constructs the handler.
func NewWarehouseHandler(svc warehouseService) *WarehouseHandler {
	return &WarehouseHandler{service: svc}
}

// List godoc
// @Summary List warehouses
// @Tags Warehouses
// @Produce json
// @Param search query string false "Name or code"
// @Success 200 {object} response.Envelope
// @Router /warehouses [get]
func (h *WarehouseHandler) List(c *gin.Context) {
	filter := models.WarehouseFilter{Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Show warehouse
// @Tags Warehouses
// @Produce json
// @Param id path string true "Warehouse ID"
// @Success 200 {object} response.Envelope
// @Router /warehouses/{id} [get]
func (h *WarehouseHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create warehouse
// @Tags Warehouses
// @Accept json
// @Produce json
// @Param payload body dto.WarehouseRequest true "Warehouse"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /warehouses [post]
func (h *WarehouseHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.WarehouseRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update warehouse
// @Tags Warehouses
// @Accept json
// @Produce json
// @Param id path string true "Warehouse ID"
// @Param payload body dto.WarehouseRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /warehouses/{id} [put]
func (h *WarehouseHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.WarehouseRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete warehouse
// @Tags Warehouses
// @Param id path string true "Warehouse ID"
// @Success 204
// @Router /warehouses/{id} [delete]
func (h *WarehouseHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateTransfer godoc
// @Summary Move stock between warehouses
// @Tags Warehouses
// @Accept json
// @Produce json
// @Param payload body dto.TransferRequest true "Transfer"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /inventory-transfers [post]
func (h *WarehouseHandler) CreateTransfer(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	transfer, err := h.service.CreateTransfer(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transfer)
}

// ListTransfers godoc
// @Summary List inventory transfers
// @Tags Warehouses
// @Produce json
// @Param warehouse_id query string false "Source or destination warehouse"
// @Param status query string false "Transfer status"
// @Success 200 {object} response.Envelope
// @Router /inventory-transfers [get]
func (h *WarehouseHandler) ListTransfers(c *gin.Context) {
	filter := models.WarehouseFilter{WarehouseID: c.Query("warehouse_id"), Status: c.Query("status")}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
