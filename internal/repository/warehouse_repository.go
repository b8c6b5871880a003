package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
)

const (
	warehouseColumns = "id, name, code, location, created_at, updated_at"
	transferColumns  = "id, item_name, quantity, from_warehouse_id, to_warehouse_id, requested_by, status, notes, created_at"
)

// WarehouseRepository persists warehouses and inventory transfers.
type WarehouseRepository struct {
	db *sqlx.DB
}

// NewWarehouseRepository constructs the repository.
func NewWarehouseRepository(db *sqlx.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// List returns warehouses ordered by code.
func (r *WarehouseRepository) List(ctx context.Context, filter models.WarehouseFilter) ([]models.Warehouse, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 1)
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args))
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	items := make([]models.Warehouse, 0)
	query := fmt.Sprintf("SELECT %s FROM warehouses%s ORDER BY code ASC LIMIT %d OFFSET %d", warehouseColumns, where, limit, offset)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list warehouses: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM warehouses"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count warehouses: %w", err)
	}
	return items, total, nil
}

// FindByID returns a warehouse.
func (r *WarehouseRepository) FindByID(ctx context.Context, id string) (*models.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1`
	var item models.Warehouse
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find warehouse: %w", err)
	}
	return &item, nil
}

// Create inserts a warehouse.
func (r *WarehouseRepository) Create(ctx context.Context, item *models.Warehouse) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO warehouses (id, name, code, location, created_at, updated_at) VALUES (:id, :name, :code, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return writeError("create warehouse", err)
	}
	return nil
}

// Update rewrites a warehouse.
func (r *WarehouseRepository) Update(ctx context.Context, item *models.Warehouse) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE warehouses SET name = :name, code = :code, location = :location, updated_at = :updated_at WHERE id = :id`
	return execAffecting(ctx, r.db, query, item, "update warehouse")
}

// Delete removes a warehouse.
func (r *WarehouseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", err)
	}
	return requireAffected(res, "delete warehouse")
}

// CreateTransfer inserts an inventory transfer request.
func (r *WarehouseRepository) CreateTransfer(ctx context.Context, transfer *models.InventoryTransfer) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	if transfer.Status == "" {
		transfer.Status = models.TransferPending
	}
	transfer.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO inventory_transfers (id, item_name, quantity, from_warehouse_id, to_warehouse_id, requested_by, status, notes, created_at) VALUES (:id, :item_name, :quantity, :from_warehouse_id, :to_warehouse_id, :requested_by, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, transfer); err != nil {
		return fmt.Errorf("create inventory transfer: %w", err)
	}
	return nil
}

// ListTransfers returns transfers touching a warehouse, newest first.
func (r *WarehouseRepository) ListTransfers(ctx context.Context, filter models.WarehouseFilter) ([]models.InventoryTransfer, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 2)
	if filter.WarehouseID != "" {
		args = append(args, filter.WarehouseID)
		where += fmt.Sprintf(" AND (from_warehouse_id = $%d OR to_warehouse_id = $%d)", len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	items := make([]models.InventoryTransfer, 0)
	query := fmt.Sprintf("SELECT %s FROM inventory_transfers%s ORDER BY created_at DESC LIMIT %d OFFSET %d", transferColumns, where, limit, offset)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inventory transfers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM inventory_transfers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count inventory transfers: %w", err)
	}
	return items, total, nil
}
