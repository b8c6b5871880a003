package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	"github.com/noah-isme/erp-api/pkg/cache"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/tracing"
	"github.com/noah-isme/erp-api/pkg/validation"
)

type approvalStore interface {
	Record(ctx context.Context, spec models.DocumentSpec, txn *models.ApprovalTransaction, autoOrder bool) (*models.ApprovalOutcome, error)
	List(ctx context.Context, docType models.DocumentType, documentID string) ([]models.ApprovalTransaction, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.PendingApproval, error)
}

type approvalDocumentReader interface {
	FindByID(ctx context.Context, spec models.DocumentSpec, id string) (*models.Document, error)
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, event models.NotificationEvent) error
}

type schemaValidator interface {
	Validate(ctx context.Context, schema validation.Schema, input map[string]interface{}, opts ...validation.Option) error
}

// ApprovalService records approval transactions and keeps document status in
// step with the latest one.
type ApprovalService struct {
	repo      approvalStore
	documents approvalDocumentReader
	validator schemaValidator
	schemas   *SchemaRegistry
	notifier  notificationDispatcher
	cache     *CacheService
	metrics   *MetricsService
	audit     auditLogger
	logger    *zap.Logger
}

// NewApprovalService constructs the service. notifier, cache, metrics and
// audit may be nil.
func NewApprovalService(repo approvalStore, documents approvalDocumentReader, validator schemaValidator, schemas *SchemaRegistry, notifier notificationDispatcher, cache *CacheService, metrics *MetricsService, audit auditLogger, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &ApprovalService{
		repo:      repo,
		documents: documents,
		validator: validator,
		schemas:   schemas,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		audit:     audit,
		logger:    logger,
	}
}

// Record validates and appends a transaction to a document's approval chain.
// actorID is the authenticated user and becomes the requester when the
// payload leaves requester_id empty.
func (s *ApprovalService) Record(ctx context.Context, rawType, documentID string, req dto.RecordTransactionRequest, actorID string) (*models.ApprovalOutcome, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer("service/approval").Start(ctx, "ApprovalService.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.type", string(spec.Type)),
		attribute.String("document.id", documentID),
	)

	if req.RequesterID == "" {
		req.RequesterID = actorID
	}
	input, err := validation.Input(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid transaction payload")
	}
	input["document_id"] = documentID

	schema, _ := s.schemas.Get(ApprovalSchemaName(spec.Type))
	if err := s.validator.Validate(ctx, schema, input); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	txn := &models.ApprovalTransaction{
		DocumentID:  documentID,
		RequesterID: req.RequesterID,
		AssignedTo:  req.AssignedTo,
		ReferredTo:  req.ReferredTo,
		Description: req.Description,
		Status:      models.ApprovalStatus(req.Status),
	}
	if req.Order != nil {
		txn.Order = *req.Order
	}

	outcome, err := s.repo.Record(ctx, spec, txn, req.Order == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, appErrors.FieldError("document_id", "The selected document_id is invalid.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record approval transaction")
	}
	span.SetAttributes(
		attribute.String("approval.status", string(outcome.CurrentStatus)),
		attribute.Int("approval.order", outcome.Transaction.Order),
	)

	regressed := outcome.Regressed()
	if regressed {
		s.logger.Warn("approval status regressed to pending",
			zap.String("document_type", string(spec.Type)),
			zap.String("document_id", documentID),
			zap.String("previous_status", string(*outcome.PreviousStatus)),
			zap.String("transaction_id", outcome.Transaction.ID),
		)
	}

	s.metrics.RecordApproval(spec.Type, outcome.Transaction.Status, regressed)
	_ = s.cache.Invalidate(ctx, cache.Key("documents", string(spec.Type), documentID))

	actor := actorID
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionApprovalRecord,
		Resource:   spec.Table,
		ResourceID: &outcome.Transaction.DocumentID,
		OldValues:  auditPayload(map[string]interface{}{"approval_status": outcome.PreviousStatus}),
		NewValues: auditPayload(map[string]interface{}{
			"transaction_id":  outcome.Transaction.ID,
			"order":           outcome.Transaction.Order,
			"approval_status": outcome.CurrentStatus,
			"status":          outcome.Document.Status,
		}),
	})

	s.notify(ctx, spec, outcome, actorID)
	return outcome, nil
}

// List returns the ordered approval chain and the current projection.
func (s *ApprovalService) List(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, spec, documentID)
	if err != nil {
		return nil, documentLoadError(err)
	}
	txns, err := s.repo.List(ctx, spec.Type, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval transactions")
	}
	return &dto.ApprovalChainResponse{
		DocumentType:   spec.Type,
		DocumentID:     doc.ID,
		Status:         doc.Status,
		ApprovalStatus: doc.ApprovalStatus,
		Transactions:   txns,
	}, nil
}

// Current returns the document's projected status without the chain.
func (s *ApprovalService) Current(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error) {
	spec, err := resolveSpec(rawType)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, spec, documentID)
	if err != nil {
		return nil, documentLoadError(err)
	}
	return &dto.ApprovalChainResponse{
		DocumentType:   spec.Type,
		DocumentID:     doc.ID,
		Status:         doc.Status,
		ApprovalStatus: doc.ApprovalStatus,
	}, nil
}

// RemindStale enqueues reminder notifications for chains still Pending after
// the given age. It returns the number of reminders dispatched.
func (s *ApprovalService) RemindStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	pending, err := s.repo.ListStalePending(ctx, time.Now().UTC().Add(-olderThan), limit)
	if err != nil {
		return 0, fmt.Errorf("list stale approvals: %w", err)
	}
	if s.notifier == nil {
		return 0, nil
	}
	sent := 0
	for _, p := range pending {
		txn := models.ApprovalTransaction{Status: models.ApprovalPending, AssignedTo: p.AssignedTo, ReferredTo: p.ReferredTo}
		recipient := txn.Recipient()
		if recipient == "" {
			continue
		}
		spec, _ := p.DocumentType.Spec()
		event := models.NotificationEvent{
			Kind:         models.NotificationKindReminder,
			RecipientID:  recipient,
			DocumentType: p.DocumentType,
			DocumentID:   p.DocumentID,
			Status:       models.ApprovalPending,
			Title:        fmt.Sprintf("%s awaiting your approval", spec.Label),
			Body:         fmt.Sprintf("%s %s has been pending since %s.", spec.Label, p.DocumentID, p.CreatedAt.Format(time.RFC822)),
			OccurredAt:   time.Now().UTC(),
		}
		if err := s.notifier.Dispatch(ctx, event); err != nil {
			s.logger.Warn("failed to enqueue approval reminder", zap.String("document_id", p.DocumentID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *ApprovalService) notify(ctx context.Context, spec models.DocumentSpec, outcome *models.ApprovalOutcome, actorID string) {
	if s.notifier == nil {
		return
	}
	recipient := outcome.Transaction.Recipient()
	if recipient == "" || recipient == actorID {
		return
	}
	number := outcome.Document.Number
	event := models.NotificationEvent{
		Kind:         models.NotificationKindApproval,
		RecipientID:  recipient,
		ActorID:      actorID,
		DocumentType: spec.Type,
		DocumentID:   outcome.Document.ID,
		DocumentNo:   number,
		Status:       outcome.Transaction.Status,
		Title:        fmt.Sprintf("%s %s: %s", spec.Label, number, outcome.Transaction.Status),
		Body:         fmt.Sprintf("%s %s is now %s.", spec.Label, number, outcome.Document.Status),
		OccurredAt:   outcome.Transaction.CreatedAt,
	}
	if err := s.notifier.Dispatch(ctx, event); err != nil {
		s.logger.Warn("failed to enqueue approval notification", zap.String("transaction_id", outcome.Transaction.ID), zap.Error(err))
	}
}

func resolveSpec(raw string) (models.DocumentSpec, error) {
	t, ok := models.ParseDocumentType(raw)
	if !ok {
		return models.DocumentSpec{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown document type %q", raw))
	}
	spec, _ := t.Spec()
	return spec, nil
}
