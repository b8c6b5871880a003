package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleStaff      UserRole = "STAFF"
)

// UserRoles lists every assignable role.
func UserRoles() []string {
	return []string{string(RoleSuperAdmin), string(RoleAdmin), string(RoleManager), string(RoleStaff)}
}

// User represents an application user stored in the users table.
// ParentID links to the supervising user; HierarchyLevel is NULL for roots.
type User struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FullName       string     `db:"full_name" json:"full_name"`
	Role           UserRole   `db:"role" json:"role"`
	Active         bool       `db:"active" json:"active"`
	DepartmentID   *string    `db:"department_id" json:"department_id,omitempty"`
	ParentID       *string    `db:"parent_id" json:"parent_id,omitempty"`
	HierarchyLevel *int       `db:"hierarchy_level" json:"hierarchy_level,omitempty"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HierarchyNode is the minimal projection used for level maintenance.
type HierarchyNode struct {
	ID             string  `db:"id" json:"id"`
	ParentID       *string `db:"parent_id" json:"parent_id,omitempty"`
	HierarchyLevel *int    `db:"hierarchy_level" json:"hierarchy_level,omitempty"`
}

// Subordinate is a descendant returned by subtree queries.
type Subordinate struct {
	ID             string   `db:"id" json:"id"`
	FullName       string   `db:"full_name" json:"full_name"`
	Email          string   `db:"email" json:"email"`
	Role           UserRole `db:"role" json:"role"`
	ParentID       *string  `db:"parent_id" json:"parent_id,omitempty"`
	HierarchyLevel *int     `db:"hierarchy_level" json:"hierarchy_level,omitempty"`
	Depth          int      `db:"depth" json:"depth"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Active       *bool
	DepartmentID string
	ParentID     string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
