package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
)

const attachmentColumns = `id, document_type, document_id, kind, original_name, file_path, mime_type, size_bytes, uploaded_by, created_at, deleted_at`

// AttachmentRepository handles upload metadata persistence.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create stores metadata for an uploaded file.
func (r *AttachmentRepository) Create(ctx context.Context, item *models.Attachment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attachments
	(id, document_type, document_id, kind, original_name, file_path, mime_type, size_bytes, uploaded_by, created_at)
	VALUES (:id, :document_type, :document_id, :kind, :original_name, :file_path, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// GetByID retrieves one live attachment.
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1 AND deleted_at IS NULL`
	var item models.Attachment
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByDocument returns the live attachments of one document, newest first.
func (r *AttachmentRepository) ListByDocument(ctx context.Context, docType models.DocumentType, documentID string) ([]models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments
	WHERE document_type = $1 AND document_id = $2 AND deleted_at IS NULL
	ORDER BY created_at DESC`
	records := make([]models.Attachment, 0)
	if err := r.db.SelectContext(ctx, &records, query, docType, documentID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return records, nil
}

// SoftDelete marks an attachment as deleted.
func (r *AttachmentRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE attachments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete attachment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check attachment delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
