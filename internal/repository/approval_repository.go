package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/database"
)

// ErrDocumentNotFound is returned when the document is missing or soft deleted.
var ErrDocumentNotFound = errors.New("document not found")

const (
	transactionColumns = `id, document_type, document_id, requester_id, assigned_to, referred_to, "order", description, status, created_at`
	latestStatusQuery  = `SELECT status FROM approval_transactions WHERE document_type = $1 AND document_id = $2 ORDER BY "order" DESC, created_at DESC LIMIT 1`
	nextOrderQuery     = `SELECT COALESCE(MAX("order"), -1) + 1 FROM approval_transactions WHERE document_type = $1 AND document_id = $2`
	insertTransaction  = `INSERT INTO approval_transactions (id, document_type, document_id, requester_id, assigned_to, referred_to, "order", description, status, created_at) VALUES (:id, :document_type, :document_id, :requester_id, :assigned_to, :referred_to, :order, :description, :status, :created_at)`
)

// ApprovalRepository writes approval transactions and keeps the document
// projection in step with the latest one.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Record appends txn to the document's chain inside one transaction holding
// a row lock on the document. When autoOrder is set the next order index is
// assigned under that lock. The document's approval_status is set to the
// status of the highest-order transaction (latest created_at on ties) and its
// own status to the type's mapped counterpart when one exists.
func (r *ApprovalRepository) Record(ctx context.Context, spec models.DocumentSpec, txn *models.ApprovalTransaction, autoOrder bool) (*models.ApprovalOutcome, error) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	txn.DocumentType = spec.Type
	txn.CreatedAt = time.Now().UTC()

	var outcome models.ApprovalOutcome
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lockQuery := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", documentColumns, spec.Table)
		var doc models.Document
		if err := tx.GetContext(ctx, &doc, lockQuery, txn.DocumentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDocumentNotFound
			}
			return fmt.Errorf("lock %s: %w", spec.Table, err)
		}
		doc.Type = spec.Type

		previous, err := latestStatus(ctx, tx, spec.Type, txn.DocumentID)
		if err != nil {
			return err
		}

		if autoOrder {
			if err := tx.GetContext(ctx, &txn.Order, nextOrderQuery, spec.Type, txn.DocumentID); err != nil {
				return fmt.Errorf("next approval order: %w", err)
			}
		}

		if _, err := tx.NamedExecContext(ctx, insertTransaction, txn); err != nil {
			return fmt.Errorf("insert approval transaction: %w", err)
		}

		current, err := latestStatus(ctx, tx, spec.Type, txn.DocumentID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("approval chain empty after insert")
		}

		if mapped, ok := spec.Project(*current); ok {
			doc.Status = mapped
		}
		doc.ApprovalStatus = current
		doc.UpdatedAt = txn.CreatedAt

		update := fmt.Sprintf("UPDATE %s SET approval_status = $2, status = $3, updated_at = $4 WHERE id = $1", spec.Table)
		if _, err := tx.ExecContext(ctx, update, doc.ID, *current, doc.Status, doc.UpdatedAt); err != nil {
			return fmt.Errorf("update %s status: %w", spec.Table, err)
		}

		outcome = models.ApprovalOutcome{
			Transaction:    *txn,
			Document:       doc,
			PreviousStatus: previous,
			CurrentStatus:  *current,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// List returns a document's chain ordered by step.
func (r *ApprovalRepository) List(ctx context.Context, docType models.DocumentType, documentID string) ([]models.ApprovalTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM approval_transactions WHERE document_type = $1 AND document_id = $2 ORDER BY "order" ASC, created_at ASC`
	txns := make([]models.ApprovalTransaction, 0)
	if err := r.db.SelectContext(ctx, &txns, query, docType, documentID); err != nil {
		return nil, fmt.Errorf("list approval transactions: %w", err)
	}
	return txns, nil
}

// ListStalePending returns documents whose latest transaction is Pending and
// was written before olderThan.
func (r *ApprovalRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.PendingApproval, error) {
	if limit <= 0 {
		limit = 200
	}
	const query = `SELECT document_type, document_id, id, requester_id, assigned_to, referred_to, created_at FROM (
	SELECT DISTINCT ON (document_type, document_id) document_type, document_id, id, requester_id, assigned_to, referred_to, status, created_at
	FROM approval_transactions
	ORDER BY document_type, document_id, "order" DESC, created_at DESC
) latest WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`
	pending := make([]models.PendingApproval, 0)
	if err := r.db.SelectContext(ctx, &pending, query, models.ApprovalPending, olderThan, limit); err != nil {
		return nil, fmt.Errorf("list stale pending approvals: %w", err)
	}
	return pending, nil
}

func latestStatus(ctx context.Context, tx *sqlx.Tx, docType models.DocumentType, documentID string) (*models.ApprovalStatus, error) {
	var status models.ApprovalStatus
	if err := tx.GetContext(ctx, &status, latestStatusQuery, docType, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest approval status: %w", err)
	}
	return &status, nil
}
