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
	"github.com/noah-isme/erp-api/pkg/database"
)

const documentColumns = "id, number, title, description, department_id, requester_id, reference_id, amount, currency, due_date, status, approval_status, created_at, updated_at, deleted_at"

// DocumentRepository persists every approvable document type. The table is
// taken from the type's spec, so one implementation serves all six tables.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns non-deleted documents matching the filter with total count.
func (r *DocumentRepository) List(ctx context.Context, spec models.DocumentSpec, filter models.DocumentFilter) ([]models.Document, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 5)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ApprovalStatus != "" {
		args = append(args, filter.ApprovalStatus)
		conditions = append(conditions, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(number) LIKE $%d OR LOWER(title) LIKE $%d)", len(args), len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	order := orderClause(filter.SortBy, filter.SortOrder, map[string]bool{
		"number":     true,
		"title":      true,
		"amount":     true,
		"due_date":   true,
		"status":     true,
		"created_at": true,
		"updated_at": true,
	}, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d", documentColumns, spec.Table, where, order, limit, offset)
	docs := make([]models.Document, 0)
	if err := r.db.SelectContext(ctx, &docs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", spec.Table, err)
	}
	for i := range docs {
		docs[i].Type = spec.Type
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", spec.Table, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", spec.Table, err)
	}
	return docs, total, nil
}

// FindByID returns a non-deleted document.
func (r *DocumentRepository) FindByID(ctx context.Context, spec models.DocumentSpec, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL", documentColumns, spec.Table)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find %s: %w", spec.Table, err)
	}
	doc.Type = spec.Type
	return &doc, nil
}

// Create inserts a document applying the type's default status.
func (r *DocumentRepository) Create(ctx context.Context, spec models.DocumentSpec, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = spec.DefaultStatus
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Type = spec.Type

	query := fmt.Sprintf(`INSERT INTO %s (id, number, title, description, department_id, requester_id, reference_id, amount, currency, due_date, status, approval_status, created_at, updated_at)
	VALUES (:id, :number, :title, :description, :department_id, :requester_id, :reference_id, :amount, :currency, :due_date, :status, :approval_status, :created_at, :updated_at)`, spec.Table)
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return writeError("create "+spec.Table, err)
	}
	return nil
}

// Modify locks a non-deleted document, lets apply change it and writes the
// editable columns back in the same transaction. The approval columns are
// read under the lock, so a concurrent approval cannot be overwritten.
func (r *DocumentRepository) Modify(ctx context.Context, spec models.DocumentSpec, id string, apply func(doc *models.Document) error) (*models.Document, error) {
	var doc models.Document
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lockQuery := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", documentColumns, spec.Table)
		if err := tx.GetContext(ctx, &doc, lockQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock %s: %w", spec.Table, err)
		}
		doc.Type = spec.Type
		if err := apply(&doc); err != nil {
			return err
		}

		doc.UpdatedAt = time.Now().UTC()
		query := fmt.Sprintf(`UPDATE %s SET number = :number, title = :title, description = :description, department_id = :department_id,
	reference_id = :reference_id, amount = :amount, currency = :currency, due_date = :due_date, status = :status, updated_at = :updated_at
	WHERE id = :id AND deleted_at IS NULL`, spec.Table)
		return execAffecting(ctx, tx, query, &doc, "update "+spec.Table)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// SoftDelete marks a document as deleted.
func (r *DocumentRepository) SoftDelete(ctx context.Context, spec models.DocumentSpec, id string) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL", spec.Table)
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", spec.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s delete rows: %w", spec.Table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
