package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse is a stock location.
type Warehouse struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TransferStatus tracks an inventory transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "Pending"
	TransferInTransit TransferStatus = "InTransit"
	TransferCompleted TransferStatus = "Completed"
	TransferCancelled TransferStatus = "Cancelled"
)

// TransferStatuses lists every transfer status.
func TransferStatuses() []string {
	return []string{string(TransferPending), string(TransferInTransit), string(TransferCompleted), string(TransferCancelled)}
}

// InventoryTransfer moves a quantity of an item between two warehouses.
type InventoryTransfer struct {
	ID              string          `db:"id" json:"id"`
	ItemName        string          `db:"item_name" json:"item_name"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	FromWarehouseID string          `db:"from_warehouse_id" json:"from_warehouse_id"`
	ToWarehouseID   string          `db:"to_warehouse_id" json:"to_warehouse_id"`
	RequestedBy     string          `db:"requested_by" json:"requested_by"`
	Status          TransferStatus  `db:"status" json:"status"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// WarehouseFilter narrows warehouse and transfer listings.
type WarehouseFilter struct {
	Search      string
	WarehouseID string
	Status      string
	Page        int
	PageSize    int
}
