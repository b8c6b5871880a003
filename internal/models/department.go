package models

import "time"

// Department is a node of the organisational chart.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	ManagerID *string   `db:"manager_id" json:"manager_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter narrows department listings.
type DepartmentFilter struct {
	Search   string
	ParentID string
	Page     int
	PageSize int
}
