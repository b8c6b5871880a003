package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/storage"
)

type attachmentStoreStub struct {
	items map[string]*models.Attachment
}

func (s *attachmentStoreStub) Create(ctx context.Context, item *models.Attachment) error {
	item.ID = "att-1"
	item.CreatedAt = time.Now().UTC()
	s.items[item.ID] = item
	return nil
}

func (s *attachmentStoreStub) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	item, ok := s.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *attachmentStoreStub) ListByDocument(ctx context.Context, docType models.DocumentType, documentID string) ([]models.Attachment, error) {
	out := []models.Attachment{}
	for _, item := range s.items {
		if item.DocumentType == docType && item.DocumentID == documentID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *attachmentStoreStub) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	item, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.DeletedAt = &deletedAt
	return nil
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newAttachmentFixture(t *testing.T, cfg AttachmentServiceConfig) (*AttachmentService, *attachmentStoreStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := &attachmentStoreStub{items: map[string]*models.Attachment{}}
	docs := &documentReaderStub{doc: &models.Document{ID: testDocID}}
	signer := storage.NewSignedURLSigner("secret", "attachments", time.Hour)
	return NewAttachmentService(repo, docs, store, signer, &auditStub{}, nil, cfg), repo
}

func tokenFrom(t *testing.T, downloadURL string) string {
	t.Helper()
	parsed, err := url.Parse(downloadURL)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestAttachmentUploadAndDownload(t *testing.T) {
	svc, repo := newAttachmentFixture(t, AttachmentServiceConfig{})

	resp, err := svc.Upload(context.Background(), "purchase_order", testDocID, AttachmentUpload{
		Kind:     "document",
		Filename: "Quote #1.pdf",
		Size:     int64(len(samplePDF)),
		Content:  bytes.NewReader(samplePDF),
	}, testActorID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.MimeType)
	assert.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/attachments/att-1/download?token="))
	assert.True(t, strings.HasPrefix(repo.items["att-1"].FilePath, "attachments/purchase_order/"+testDocID+"/quote__1_"))

	download, err := svc.Download(context.Background(), "att-1", tokenFrom(t, resp.DownloadURL))
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, body)
	assert.Equal(t, "Quote #1.pdf", download.Filename)
}

func TestAttachmentRejectsWrongTypeForKind(t *testing.T) {
	svc, repo := newAttachmentFixture(t, AttachmentServiceConfig{})

	_, err := svc.Upload(context.Background(), "rfq", testDocID, AttachmentUpload{
		Kind:     "image",
		Filename: "fake.png",
		Size:     int64(len(samplePDF)),
		Content:  bytes.NewReader(samplePDF),
	}, testActorID)
	fields := validationFields(t, err)
	assert.Contains(t, fields["file"], "image/png")
	assert.Empty(t, repo.items)
}

func TestAttachmentRejectsOversizedFile(t *testing.T) {
	svc, _ := newAttachmentFixture(t, AttachmentServiceConfig{MaxDocumentBytes: 16})

	_, err := svc.Upload(context.Background(), "rfq", testDocID, AttachmentUpload{
		Kind: "document", Filename: "a.pdf", Size: int64(len(samplePDF)), Content: bytes.NewReader(samplePDF),
	}, testActorID)
	fields := validationFields(t, err)
	assert.Contains(t, fields["file"], "must not exceed")
}

func TestAttachmentRejectsUnknownKind(t *testing.T) {
	svc, _ := newAttachmentFixture(t, AttachmentServiceConfig{})
	_, err := svc.Upload(context.Background(), "rfq", testDocID, AttachmentUpload{
		Kind: "audio", Filename: "a.mp3", Size: 10, Content: bytes.NewReader([]byte("0123456789")),
	}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected kind is invalid.", fields["kind"])
}

func TestAttachmentDownloadRejectsForeignToken(t *testing.T) {
	svc, _ := newAttachmentFixture(t, AttachmentServiceConfig{})
	_, err := svc.Upload(context.Background(), "rfq", testDocID, AttachmentUpload{
		Kind: "document", Filename: "a.pdf", Size: int64(len(samplePDF)), Content: bytes.NewReader(samplePDF),
	}, testActorID)
	require.NoError(t, err)

	other := storage.NewSignedURLSigner("secret", "reports", time.Hour)
	token, _, err := other.Generate("att-1", "x.pdf")
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), "att-1", token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAttachmentDeleteHidesItem(t *testing.T) {
	svc, _ := newAttachmentFixture(t, AttachmentServiceConfig{})
	resp, err := svc.Upload(context.Background(), "rfq", testDocID, AttachmentUpload{
		Kind: "document", Filename: "a.pdf", Size: int64(len(samplePDF)), Content: bytes.NewReader(samplePDF),
	}, testActorID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), resp.ID, testActorID))
	_, err = svc.Download(context.Background(), resp.ID, tokenFrom(t, resp.DownloadURL))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
