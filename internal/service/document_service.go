package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	"github.com/noah-isme/erp-api/pkg/cache"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/export"
	"github.com/noah-isme/erp-api/pkg/validation"
)

const (
	dateLayout       = "2006-01-02"
	exportPageSize   = 100
	maxExportRows    = 5000
	documentCacheTTL = 5 * time.Minute
	defaultCurrency  = "IDR"
)

type documentStore interface {
	List(ctx context.Context, spec models.DocumentSpec, filter models.DocumentFilter) ([]models.Document, int, error)
	FindByID(ctx context.Context, spec models.DocumentSpec, id string) (*models.Document, error)
	Create(ctx context.Context, spec models.DocumentSpec, doc *models.Document) error
	Modify(ctx context.Context, spec models.DocumentSpec, id string, apply func(doc *models.Document) error) (*models.Document, error)
	SoftDelete(ctx context.Context, spec models.DocumentSpec, id string) error
}

// DocumentService manages the approvable documents of every type.
type DocumentService struct {
	repo      documentStore
	validator schemaValidator
	schemas   *SchemaRegistry
	cache     *CacheService
	audit     auditLogger
	logger    *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentStore, validator schemaValidator, schemas *SchemaRegistry, cache *CacheService, audit auditLogger, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &DocumentService{repo: repo, validator: validator, schemas: schemas, cache: cache, audit: audit, logger: logger}
}

// List returns a page of documents of one type.
func (s *DocumentService) List(ctx context.Context, rawType string, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, nil, err
	}
	docs, total, err := s.repo.List(ctx, spec, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one document, served from cache when possible. The boolean
// reports a cache hit.
func (s *DocumentService) Get(ctx context.Context, rawType, id string) (*models.Document, bool, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, false, err
	}
	key := cache.Key("documents", string(spec.Type), id)
	doc, hit, err := remember(ctx, s.cache, key, documentCacheTTL, func(ctx context.Context) (*models.Document, error) {
		return s.repo.FindByID(ctx, spec, id)
	})
	if err != nil {
		return nil, false, documentLoadError(err)
	}
	return doc, hit, nil
}

// Create validates and stores a new document.
func (s *DocumentService) Create(ctx context.Context, rawType string, req dto.DocumentRequest, actorID string) (*models.Document, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == "" {
		req.RequesterID = actorID
	}
	if err := s.validate(ctx, spec, req); err != nil {
		return nil, err
	}

	doc := &models.Document{RequesterID: req.RequesterID}
	applyDocumentRequest(doc, req)
	if doc.Currency == "" {
		doc.Currency = defaultCurrency
	}
	if err := s.repo.Create(ctx, spec, doc); err != nil {
		return nil, documentWriteError(err, "failed to create document")
	}

	s.record(ctx, actorID, models.AuditActionDocumentCreate, spec, doc.ID, nil, doc)
	return doc, nil
}

// Update applies the fields present in req to an existing document.
func (s *DocumentService) Update(ctx context.Context, rawType, id string, req dto.DocumentRequest, actorID string) (*models.Document, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, spec, req, validation.Partial(), validation.IgnoreID(id)); err != nil {
		return nil, err
	}

	var before models.Document
	doc, err := s.repo.Modify(ctx, spec, id, func(doc *models.Document) error {
		before = *doc
		applyDocumentRequest(doc, req)
		return nil
	})
	if err != nil {
		return nil, documentWriteError(err, "failed to update document")
	}

	_ = s.cache.Invalidate(ctx, cache.Key("documents", string(spec.Type), id))
	s.record(ctx, actorID, models.AuditActionDocumentUpdate, spec, id, &before, doc)
	return doc, nil
}

// Delete soft deletes a document. Its approval chain is kept.
func (s *DocumentService) Delete(ctx context.Context, rawType, id, actorID string) error {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, spec, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	_ = s.cache.Invalidate(ctx, cache.Key("documents", string(spec.Type), id))
	s.record(ctx, actorID, models.AuditActionDocumentDelete, spec, id, nil, nil)
	return nil
}

// Export renders every document matching filter in the requested format.
func (s *DocumentService) Export(ctx context.Context, rawType, rawFormat string, filter models.DocumentFilter) (*dto.ExportFile, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.FieldError("format", "The selected format is invalid.")
	}

	dataset := export.Dataset{
		Title:   spec.Label + " Register",
		Headers: []string{"Number", "Title", "Status", "Approval", "Amount", "Currency", "Due Date", "Created"},
	}
	filter.PageSize = exportPageSize
	for page := 1; len(dataset.Rows) < maxExportRows; page++ {
		filter.Page = page
		docs, total, err := s.repo.List(ctx, spec, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents for export")
		}
		for _, d := range docs {
			dataset.Rows = append(dataset.Rows, documentRow(d))
		}
		if len(docs) < exportPageSize || page*exportPageSize >= total {
			break
		}
	}

	content, err := export.RendererFor(format).Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("document export rendered",
		zap.String("document_type", string(spec.Type)),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("%s_%s.%s", spec.Table, time.Now().UTC().Format("20060102_150405"), format.Extension()),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

func (s *DocumentService) validate(ctx context.Context, spec models.DocumentSpec, req dto.DocumentRequest, opts ...validation.Option) error {
	return validatePayload(ctx, s.validator, s.schemas, DocumentSchemaName(spec.Type), req, opts...)
}

func (s *DocumentService) record(ctx context.Context, actorID, action string, spec models.DocumentSpec, id string, before, after *models.Document) {
	actor := actorID
	docID := id
	entry := &models.AuditLog{UserID: &actor, Action: action, Resource: spec.Table, ResourceID: &docID}
	if before != nil {
		entry.OldValues = auditPayload(map[string]interface{}{"status": before.Status, "number": before.Number, "amount": before.Amount})
	}
	if after != nil {
		entry.NewValues = auditPayload(map[string]interface{}{"status": after.Status, "number": after.Number, "amount": after.Amount})
	}
	emitAudit(ctx, s.audit, s.logger, entry)
}

func applyDocumentRequest(doc *models.Document, req dto.DocumentRequest) {
	if req.Number != "" {
		doc.Number = strings.TrimSpace(req.Number)
	}
	if req.Title != "" {
		doc.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != nil {
		doc.Description = req.Description
	}
	if req.DepartmentID != nil {
		doc.DepartmentID = req.DepartmentID
	}
	if req.ReferenceID != nil {
		doc.ReferenceID = req.ReferenceID
	}
	if req.Amount != nil {
		doc.Amount = decimal.NewNullDecimal(*req.Amount)
	}
	if req.Currency != "" {
		doc.Currency = strings.ToUpper(req.Currency)
	}
	if req.DueDate != nil {
		doc.DueDate = parseDate(*req.DueDate)
	}
	if req.Status != "" {
		doc.Status = req.Status
	}
}

func parseDate(raw string) *time.Time {
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func documentRow(d models.Document) map[string]string {
	row := map[string]string{
		"Number":   d.Number,
		"Title":    d.Title,
		"Status":   d.Status,
		"Currency": d.Currency,
		"Created":  d.CreatedAt.Format(dateLayout),
	}
	if d.ApprovalStatus != nil {
		row["Approval"] = string(*d.ApprovalStatus)
	}
	if d.Amount.Valid {
		row["Amount"] = d.Amount.Decimal.StringFixed(2)
	}
	if d.DueDate != nil {
		row["Due Date"] = d.DueDate.Format(dateLayout)
	}
	return row
}

func documentLoadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
}

func documentWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.FieldError("number", "The number has already been taken.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func buildPagination(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
