package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/validation"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ReferenceRepository answers exists/unique questions for validation rules.
// Table and column names come from schema declarations, never from input,
// and are additionally restricted to a whitelist.
type ReferenceRepository struct {
	db      *sqlx.DB
	allowed map[string]bool
}

// NewReferenceRepository constructs the repository for the given tables.
func NewReferenceRepository(db *sqlx.DB, tables ...string) *ReferenceRepository {
	allowed := make(map[string]bool, len(tables))
	for _, t := range tables {
		allowed[t] = true
	}
	return &ReferenceRepository{db: db, allowed: allowed}
}

// ReferenceTables lists every table validation rules may reference.
func ReferenceTables() []string {
	tables := []string{"users", "departments", "warehouses", "tasks"}
	for _, t := range models.DocumentTypes() {
		if spec, ok := t.Spec(); ok {
			tables = append(tables, spec.Table)
		}
	}
	return tables
}

func (r *ReferenceRepository) check(ref validation.Ref) error {
	if !r.allowed[ref.Table] || !identifierPattern.MatchString(ref.Table) {
		return fmt.Errorf("reference table %q not allowed", ref.Table)
	}
	if !identifierPattern.MatchString(ref.Column) {
		return fmt.Errorf("reference column %q not allowed", ref.Column)
	}
	return nil
}

// Exists reports whether a row with column = value exists.
func (r *ReferenceRepository) Exists(ctx context.Context, ref validation.Ref, value interface{}) (bool, error) {
	if err := r.check(ref); err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1", ref.Table, ref.Column)
	if ref.SoftDeletes {
		query += " AND deleted_at IS NULL"
	}
	query += ")"

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, fmt.Sprint(value)); err != nil {
		return false, fmt.Errorf("check %s.%s exists: %w", ref.Table, ref.Column, err)
	}
	return exists, nil
}

// Taken reports whether value is used by a row other than ignoreID.
func (r *ReferenceRepository) Taken(ctx context.Context, ref validation.Ref, value interface{}, ignoreID string) (bool, error) {
	if err := r.check(ref); err != nil {
		return false, err
	}
	args := []interface{}{fmt.Sprint(value)}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1", ref.Table, ref.Column)
	if ignoreID != "" {
		args = append(args, ignoreID)
		query += " AND id <> $2"
	}
	if ref.SoftDeletes {
		query += " AND deleted_at IS NULL"
	}
	query += ")"

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, args...); err != nil {
		return false, fmt.Errorf("check %s.%s unique: %w", ref.Table, ref.Column, err)
	}
	return taken, nil
}
