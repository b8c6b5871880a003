package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/models"
)

var attachmentCols = []string{"id", "document_type", "document_id", "kind", "original_name", "file_path", "mime_type", "size_bytes", "uploaded_by", "created_at", "deleted_at"}

func TestAttachmentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attachments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.Attachment{
		DocumentType: models.DocumentRFQ,
		DocumentID:   "rfq-1",
		Kind:         models.AttachmentDocument,
		OriginalName: "quote.pdf",
		FilePath:     "attachments/rfq/rfq-1/quote.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    1024,
		UploadedBy:   "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	require.NotEmpty(t, item.ID)
	require.False(t, item.CreatedAt.IsZero())

	rows := sqlmock.NewRows(attachmentCols).
		AddRow(item.ID, "rfq", "rfq-1", "document", "quote.pdf", item.FilePath, item.MimeType, item.SizeBytes, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, document_type, document_id, kind")).
		WithArgs(item.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.ID, found.ID)
	require.Equal(t, models.DocumentRFQ, found.DocumentType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryListByDocument(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	rows := sqlmock.NewRows(attachmentCols).
		AddRow("att-1", "invoice", "inv-1", "image", "scan.png", "attachments/invoice/inv-1/scan.png", "image/png", 2048, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attachments")).
		WithArgs("invoice", "inv-1").
		WillReturnRows(rows)

	items, err := repo.ListByDocument(context.Background(), models.DocumentInvoice, "inv-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, models.AttachmentImage, items[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments SET deleted_at = $2")).
		WithArgs("att-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "att-1", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments SET deleted_at = $2")).
		WithArgs("att-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.Error(t, repo.SoftDelete(context.Background(), "att-2", now))
}
