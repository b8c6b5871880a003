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

const departmentColumns = "id, name, code, parent_id, manager_id, created_at, updated_at"

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments ordered by code.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 2)
	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		where += fmt.Sprintf(" AND parent_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args))
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	items := make([]models.Department, 0)
	query := fmt.Sprintf("SELECT %s FROM departments%s ORDER BY code ASC LIMIT %d OFFSET %d", departmentColumns, where, limit, offset)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM departments"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	return items, total, nil
}

// FindByID returns a department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	var item models.Department
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &item, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, item *models.Department) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO departments (id, name, code, parent_id, manager_id, created_at, updated_at) VALUES (:id, :name, :code, :parent_id, :manager_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return writeError("create department", err)
	}
	return nil
}

// Update rewrites a department.
func (r *DepartmentRepository) Update(ctx context.Context, item *models.Department) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, code = :code, parent_id = :parent_id, manager_id = :manager_id, updated_at = :updated_at WHERE id = :id`
	return execAffecting(ctx, r.db, query, item, "update department")
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireAffected(res, "delete department")
}

func execAffecting(ctx context.Context, db sqlx.ExtContext, query string, arg interface{}, op string) error {
	res, err := sqlx.NamedExecContext(ctx, db, query, arg)
	if err != nil {
		return writeError(op, err)
	}
	return requireAffected(res, op)
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
