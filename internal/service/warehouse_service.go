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

type warehouseStore interface {
	List(ctx context.Context, filter models.WarehouseFilter) ([]models.Warehouse, int, error)
	FindByID(ctx context.Context, id string) (*models.Warehouse, error)
	Create(ctx context.Context, item *models.Warehouse) error
	Update(ctx context.Context, item *models.Warehouse) error
	Delete(ctx context.Context, id string) error
	CreateTransfer(ctx context.Context, transfer *models.InventoryTransfer) error
	ListTransfers(ctx context.Context, filter models.WarehouseFilter) ([]models.InventoryTransfer, int, error)
}

// WarehouseService manages stock locations and transfers between them.
type WarehouseService struct {
	repo      warehouseStore
	validator schemaValidator
	schemas   *SchemaRegistry
	audit     auditLogger
	logger    *zap.Logger
}

// NewWarehouseService constructs the service.
func NewWarehouseService(repo warehouseStore, validator schemaValidator, schemas *SchemaRegistry, audit auditLogger, logger *zap.Logger) *WarehouseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &WarehouseService{repo: repo, validator: validator, schemas: schemas, audit: audit, logger: logger}
}

func (s *WarehouseService) List(ctx context.Context, filter models.WarehouseFilter) ([]models.Warehouse, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list warehouses")
	}
	return items, buildPagination(filter.Page, filter.PageSize, total), nil
}

func (s *WarehouseService) Get(ctx context.Context, id string) (*models.Warehouse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, warehouseError(err, "failed to load warehouse")
	}
	return item, nil
}

func (s *WarehouseService) Create(ctx context.Context, req dto.WarehouseRequest, actorID string) (*models.Warehouse, error) {
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaWarehouse, req); err != nil {
		return nil, err
	}
	item := &models.Warehouse{
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.TrimSpace(req.Code),
		Location: req.Location,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, warehouseError(err, "failed to create warehouse")
	}
	s.record(ctx, actorID, models.AuditActionWarehouseWrite, "warehouses", item.ID, map[string]interface{}{"op": "create", "code": item.Code})
	return item, nil
}

func (s *WarehouseService) Update(ctx context.Context, id string, req dto.WarehouseRequest, actorID string) (*models.Warehouse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, warehouseError(err, "failed to load warehouse")
	}
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaWarehouse, req, validation.Partial(), validation.IgnoreID(id)); err != nil {
		return nil, err
	}
	if req.Name != "" {
		item.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		item.Code = strings.TrimSpace(req.Code)
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, warehouseError(err, "failed to update warehouse")
	}
	s.record(ctx, actorID, models.AuditActionWarehouseWrite, "warehouses", item.ID, map[string]interface{}{"op": "update", "code": item.Code})
	return item, nil
}

func (s *WarehouseService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return warehouseError(err, "failed to delete warehouse")
	}
	s.record(ctx, actorID, models.AuditActionWarehouseWrite, "warehouses", id, map[string]interface{}{"op": "delete"})
	return nil
}

// CreateTransfer records a stock movement. Both warehouses must exist and differ.
func (s *WarehouseService) CreateTransfer(ctx context.Context, req dto.TransferRequest, actorID string) (*models.InventoryTransfer, error) {
	if err := validatePayload(ctx, s.validator, s.schemas, SchemaInventoryTransfer, req); err != nil {
		return nil, err
	}
	transfer := &models.InventoryTransfer{
		ItemName:        strings.TrimSpace(req.ItemName),
		Quantity:        *req.Quantity,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		RequestedBy:     actorID,
		Notes:           req.Notes,
	}
	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inventory transfer")
	}
	s.record(ctx, actorID, models.AuditActionTransferCreate, "inventory_transfers", transfer.ID, map[string]interface{}{
		"from":     transfer.FromWarehouseID,
		"to":       transfer.ToWarehouseID,
		"quantity": transfer.Quantity.String(),
	})
	return transfer, nil
}

// ListTransfers returns transfers touching a warehouse on either side.
func (s *WarehouseService) ListTransfers(ctx context.Context, filter models.WarehouseFilter) ([]models.InventoryTransfer, *models.Pagination, error) {
	items, total, err := s.repo.ListTransfers(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inventory transfers")
	}
	return items, buildPagination(filter.Page, filter.PageSize, total), nil
}

func (s *WarehouseService) record(ctx context.Context, actorID, action, resource, id string, values map[string]interface{}) {
	actor := actorID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   resource,
		ResourceID: &id,
		NewValues:  auditPayload(values),
	})
}

func warehouseError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "warehouse not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.FieldError("code", "The code has already been taken.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
