package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

type attachmentStore interface {
	Create(ctx context.Context, item *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByDocument(ctx context.Context, docType models.DocumentType, documentID string) ([]models.Attachment, error)
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}

type fileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// AttachmentUpload carries an uploaded file and its declared name and size.
type AttachmentUpload struct {
	Kind     string
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// FileDownload bundles an opened file with response metadata.
type FileDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// AttachmentServiceConfig holds per-kind size ceilings.
type AttachmentServiceConfig struct {
	MaxImageBytes    int64
	MaxDocumentBytes int64
	MaxVideoBytes    int64
	APIPrefix        string
}

type kindPolicy struct {
	maxBytes int64
	mimes    []string
}

// AttachmentService stores files linked to documents and serves them through
// signed URLs.
type AttachmentService struct {
	repo      attachmentStore
	documents approvalDocumentReader
	storage   fileStorage
	signer    urlSigner
	audit     auditLogger
	logger    *zap.Logger
	apiPrefix string
	policies  map[models.AttachmentKind]kindPolicy
}

// NewAttachmentService constructs the service with default limits where unset.
func NewAttachmentService(repo attachmentStore, documents approvalDocumentReader, storage fileStorage, signer urlSigner, audit auditLogger, logger *zap.Logger, cfg AttachmentServiceConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 2 << 20
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 10 << 20
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = 100 << 20
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &AttachmentService{
		repo:      repo,
		documents: documents,
		storage:   storage,
		signer:    signer,
		audit:     audit,
		logger:    logger,
		apiPrefix: strings.TrimRight(cfg.APIPrefix, "/"),
		policies: map[models.AttachmentKind]kindPolicy{
			models.AttachmentImage: {
				maxBytes: cfg.MaxImageBytes,
				mimes:    []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			},
			models.AttachmentDocument: {
				maxBytes: cfg.MaxDocumentBytes,
				mimes: []string{
					"application/pdf",
					"application/msword",
					"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
					"application/vnd.ms-excel",
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
					"text/csv",
					"text/plain",
				},
			},
			models.AttachmentVideo: {
				maxBytes: cfg.MaxVideoBytes,
				mimes:    []string{"video/mp4", "video/quicktime", "video/webm"},
			},
		},
	}
}

// Upload validates and stores a file for a document.
func (s *AttachmentService) Upload(ctx context.Context, rawType, documentID string, upload AttachmentUpload, actorID string) (*dto.AttachmentResponse, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	if _, err := s.documents.FindByID(ctx, spec, documentID); err != nil {
		return nil, documentLoadError(err)
	}

	kind := models.AttachmentKind(strings.ToLower(strings.TrimSpace(upload.Kind)))
	policy, ok := s.policies[kind]
	if !ok {
		return nil, appErrors.FieldError("kind", "The selected kind is invalid.")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.FieldError("file", "The file field is required.")
	}
	if upload.Size > policy.maxBytes {
		return nil, appErrors.FieldError("file", fmt.Sprintf("The file must not exceed %d kilobytes.", policy.maxBytes>>10))
	}

	detected, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if !allowedMIME(detected, policy.mimes) {
		return nil, appErrors.FieldError("file", fmt.Sprintf("The file must be a file of type: %s.", strings.Join(policy.mimes, ", ")))
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}

	rel := path.Join("attachments", string(spec.Type), documentID, storedName(upload.Filename, detected.Extension()))
	stored, err := s.storage.SaveStream(rel, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist attachment")
	}

	item := &models.Attachment{
		DocumentType: spec.Type,
		DocumentID:   documentID,
		Kind:         kind,
		OriginalName: filepath.Base(upload.Filename),
		FilePath:     stored,
		MimeType:     mimeBase(detected.String()),
		SizeBytes:    upload.Size,
		UploadedBy:   actorID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		_ = s.storage.Delete(stored)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attachment metadata")
	}

	actor := actorID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionAttachmentUpload,
		Resource:   "attachments",
		ResourceID: &item.ID,
		NewValues:  auditPayload(map[string]interface{}{"document_type": spec.Type, "document_id": documentID, "mime_type": item.MimeType, "size": item.SizeBytes}),
	})
	return s.withURL(*item)
}

// List returns a document's attachments with fresh download URLs.
func (s *AttachmentService) List(ctx context.Context, rawType, documentID string) ([]dto.AttachmentResponse, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDocument(ctx, spec.Type, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	out := make([]dto.AttachmentResponse, 0, len(items))
	for _, item := range items {
		resp, err := s.withURL(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Download validates the signed token and opens the stored file.
func (s *AttachmentService) Download(ctx context.Context, id, token string) (*FileDownload, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	tokenID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if tokenID != item.ID || relPath != item.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment metadata")
	}
	return &FileDownload{
		File:      file,
		Filename:  item.OriginalName,
		MimeType:  item.MimeType,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

// Delete soft deletes the metadata. The file stays on disk until cleanup.
func (s *AttachmentService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	actor := actorID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionAttachmentDelete,
		Resource:   "attachments",
		ResourceID: &id,
	})
	return nil
}

func (s *AttachmentService) get(ctx context.Context, id string) (*models.Attachment, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	return item, nil
}

func (s *AttachmentService) withURL(item models.Attachment) (*dto.AttachmentResponse, error) {
	token, _, err := s.signer.Generate(item.ID, item.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &dto.AttachmentResponse{
		Attachment:  item,
		DownloadURL: fmt.Sprintf("%s/attachments/%s/download?token=%s", s.apiPrefix, item.ID, url.QueryEscape(token)),
	}, nil
}

func allowedMIME(detected *mimetype.MIME, allowed []string) bool {
	for _, candidate := range allowed {
		if detected.Is(candidate) {
			return true
		}
	}
	return false
}

func mimeBase(raw string) string {
	if i := strings.Index(raw, ";"); i >= 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}

// storedName keeps a sanitised stem of the original name and appends a
// random suffix so repeated uploads never collide.
func storedName(original, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	stem = sanitize(stem)
	if stem == "" {
		stem = "file"
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s_%d_%s%s", stem, time.Now().Unix(), randomSuffix(), ext)
}

func sanitize(raw string) string {
	raw = strings.ToLower(raw)
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
