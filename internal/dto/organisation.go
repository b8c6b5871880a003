package dto

import "github.com/shopspring/decimal"

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email        string  `json:"email,omitempty"`
	FullName     string  `json:"full_name,omitempty"`
	Role         string  `json:"role,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	Password     string  `json:"password,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	ParentID     *string `json:"parent_id,omitempty"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FullName     string  `json:"full_name,omitempty"`
	Role         string  `json:"role,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	ParentID     *string `json:"parent_id,omitempty"`
}

// Privileged reports whether the update touches fields only administrators
// may change: role, active flag, department or supervisor.
func (r UpdateUserRequest) Privileged() bool {
	return r.Role != "" || r.Active != nil || r.DepartmentID != nil || r.ParentID != nil
}

// AssignParentRequest moves a user under a new supervisor. A null parent_id
// turns the user into a root.
type AssignParentRequest struct {
	ParentID *string `json:"parent_id"`
}

// DepartmentRequest creates or updates a department.
type DepartmentRequest struct {
	Name      string  `json:"name,omitempty"`
	Code      string  `json:"code,omitempty"`
	ParentID  *string `json:"parent_id,omitempty"`
	ManagerID *string `json:"manager_id,omitempty"`
}

// WarehouseRequest creates or updates a warehouse.
type WarehouseRequest struct {
	Name     string  `json:"name,omitempty"`
	Code     string  `json:"code,omitempty"`
	Location *string `json:"location,omitempty"`
}

// TransferRequest requests stock movement between two warehouses.
type TransferRequest struct {
	ItemName        string           `json:"item_name,omitempty"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// HierarchyRebuildResult summarises a full level recomputation.
type HierarchyRebuildResult struct {
	Updated    int `json:"updated"`
	Violations int `json:"violations"`
}
