package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/jobs"
	"github.com/noah-isme/erp-api/pkg/validation"
)

const (
	testDocID     = "2b0b5b0e-5a4e-4a53-9a57-5fe0f1f6e001"
	testActorID   = "2b0b5b0e-5a4e-4a53-9a57-5fe0f1f6e002"
	testManagerID = "2b0b5b0e-5a4e-4a53-9a57-5fe0f1f6e003"
)

type approvalStoreStub struct {
	recorded  *models.ApprovalTransaction
	autoOrder bool
	previous  *models.ApprovalStatus
	recordErr error
	chain     []models.ApprovalTransaction
	stale     []models.PendingApproval
}

func (s *approvalStoreStub) Record(ctx context.Context, spec models.DocumentSpec, txn *models.ApprovalTransaction, autoOrder bool) (*models.ApprovalOutcome, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.autoOrder = autoOrder
	cp := *txn
	cp.ID = "txn-1"
	cp.DocumentType = spec.Type
	cp.CreatedAt = time.Now().UTC()
	s.recorded = &cp
	status := spec.DefaultStatus
	if mapped, ok := spec.Project(cp.Status); ok {
		status = mapped
	}
	current := cp.Status
	return &models.ApprovalOutcome{
		Transaction:    cp,
		Document:       models.Document{ID: cp.DocumentID, Type: spec.Type, Number: "PO-001", Status: status, ApprovalStatus: &current},
		PreviousStatus: s.previous,
		CurrentStatus:  current,
	}, nil
}

func (s *approvalStoreStub) List(ctx context.Context, docType models.DocumentType, documentID string) ([]models.ApprovalTransaction, error) {
	return s.chain, nil
}

func (s *approvalStoreStub) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.PendingApproval, error) {
	return s.stale, nil
}

type documentReaderStub struct {
	doc *models.Document
	err error
}

func (s *documentReaderStub) FindByID(ctx context.Context, spec models.DocumentSpec, id string) (*models.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

type dispatcherStub struct {
	events []models.NotificationEvent
}

func (d *dispatcherStub) Dispatch(ctx context.Context, event models.NotificationEvent) error {
	d.events = append(d.events, event)
	return nil
}

type auditStub struct {
	entries []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	return appErr.Fields
}

func newApprovalFixture(store *approvalStoreStub) (*ApprovalService, *dispatcherStub, *auditStub) {
	notifier := &dispatcherStub{}
	audit := &auditStub{}
	svc := NewApprovalService(store, &documentReaderStub{}, validation.New(nil), NewSchemaRegistry(), notifier, nil, nil, audit, zap.NewNop())
	return svc, notifier, audit
}

func TestApprovalRecordAutoOrderAndNotify(t *testing.T) {
	store := &approvalStoreStub{}
	svc, notifier, audit := newApprovalFixture(store)
	assignee := testManagerID

	outcome, err := svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{
		AssignedTo: &assignee,
		Status:     "Approve",
	}, testActorID)
	require.NoError(t, err)

	assert.True(t, store.autoOrder)
	assert.Equal(t, testActorID, store.recorded.RequesterID)
	assert.Equal(t, "Approved", outcome.Document.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, testManagerID, notifier.events[0].RecipientID)
	assert.Equal(t, models.NotificationKindApproval, notifier.events[0].Kind)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionApprovalRecord, audit.entries[0].Action)
}

func TestApprovalRecordExplicitOrder(t *testing.T) {
	store := &approvalStoreStub{}
	svc, _, _ := newApprovalFixture(store)
	assignee := testManagerID
	order := 3

	_, err := svc.Record(context.Background(), "rfq", testDocID, dto.RecordTransactionRequest{
		AssignedTo: &assignee,
		Order:      &order,
		Status:     "Pending",
	}, testActorID)
	require.NoError(t, err)
	assert.False(t, store.autoOrder)
	assert.Equal(t, 3, store.recorded.Order)
}

func TestApprovalRecordValidation(t *testing.T) {
	store := &approvalStoreStub{}
	svc, _, _ := newApprovalFixture(store)

	_, err := svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{
		Status: "Refer",
	}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The assigned_to field is required.", fields["assigned_to"])
	assert.Contains(t, fields, "referred_to")
	assert.Nil(t, store.recorded)
}

func TestApprovalRecordInvalidStatus(t *testing.T) {
	svc, _, _ := newApprovalFixture(&approvalStoreStub{})
	assignee := testManagerID

	_, err := svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{
		AssignedTo: &assignee,
		Status:     "Maybe",
	}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected status is invalid.", fields["status"])
}

func TestApprovalRecordMaterialRequestWithoutAssignee(t *testing.T) {
	store := &approvalStoreStub{}
	svc, notifier, _ := newApprovalFixture(store)

	outcome, err := svc.Record(context.Background(), "material_request", testDocID, dto.RecordTransactionRequest{Status: "Approve"}, testActorID)
	require.NoError(t, err)
	assert.Equal(t, "Approved", outcome.Document.Status)
	assert.Empty(t, notifier.events)
}

func TestApprovalRecordUnknownType(t *testing.T) {
	svc, _, _ := newApprovalFixture(&approvalStoreStub{})
	_, err := svc.Record(context.Background(), "memo", testDocID, dto.RecordTransactionRequest{Status: "Approve"}, testActorID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovalRecordMissingDocument(t *testing.T) {
	store := &approvalStoreStub{recordErr: repository.ErrDocumentNotFound}
	svc, _, _ := newApprovalFixture(store)
	assignee := testManagerID

	_, err := svc.Record(context.Background(), "rfq", testDocID, dto.RecordTransactionRequest{AssignedTo: &assignee, Status: "Approve"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected document_id is invalid.", fields["document_id"])
}

func TestApprovalRecordRegressionStillSucceeds(t *testing.T) {
	previous := models.ApprovalApprove
	store := &approvalStoreStub{previous: &previous}
	svc, _, _ := newApprovalFixture(store)
	assignee := testManagerID

	outcome, err := svc.Record(context.Background(), "rfq", testDocID, dto.RecordTransactionRequest{AssignedTo: &assignee, Status: "Pending"}, testActorID)
	require.NoError(t, err)
	assert.True(t, outcome.Regressed())
	assert.Equal(t, "Pending", outcome.Document.Status)
}

func TestApprovalListMissingDocument(t *testing.T) {
	svc := NewApprovalService(&approvalStoreStub{}, &documentReaderStub{err: sql.ErrNoRows}, validation.New(nil), nil, nil, nil, nil, nil, nil)
	_, err := svc.List(context.Background(), "rfq", testDocID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovalListReturnsChain(t *testing.T) {
	approved := models.ApprovalApprove
	store := &approvalStoreStub{chain: []models.ApprovalTransaction{{ID: "a", Order: 0}, {ID: "b", Order: 1}}}
	docs := &documentReaderStub{doc: &models.Document{ID: testDocID, Status: "Approved", ApprovalStatus: &approved}}
	svc := NewApprovalService(store, docs, validation.New(nil), nil, nil, nil, nil, nil, nil)

	chain, err := svc.List(context.Background(), "rfq", testDocID)
	require.NoError(t, err)
	assert.Len(t, chain.Transactions, 2)
	assert.Equal(t, "Approved", chain.Status)
}

func TestRemindStaleSkipsUnassigned(t *testing.T) {
	assignee := testManagerID
	store := &approvalStoreStub{stale: []models.PendingApproval{
		{DocumentType: models.DocumentRFQ, DocumentID: "d1", AssignedTo: &assignee, CreatedAt: time.Now().Add(-72 * time.Hour)},
		{DocumentType: models.DocumentMaterialRequest, DocumentID: "d2", CreatedAt: time.Now().Add(-72 * time.Hour)},
	}}
	svc, notifier, _ := newApprovalFixture(store)

	sent, err := svc.RemindStale(context.Background(), 48*time.Hour, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, models.NotificationKindReminder, notifier.events[0].Kind)
}

func TestApprovalRecordChecksReferencedRows(t *testing.T) {
	const stranger = "2b0b5b0e-5a4e-4a53-9a57-5fe0f1f6e0ff"
	known := func() *tableLookup {
		return &tableLookup{rows: map[string]string{
			"purchase_orders:" + testDocID: testDocID,
			"users:" + testActorID:         testActorID,
			"users:" + testManagerID:       testManagerID,
		}}
	}

	cases := []struct {
		name  string
		req   dto.RecordTransactionRequest
		field string
	}{
		{
			name:  "unknown requester",
			req:   dto.RecordTransactionRequest{RequesterID: stranger, AssignedTo: strPtr(testManagerID), Status: "Approve"},
			field: "requester_id",
		},
		{
			name:  "unknown assignee",
			req:   dto.RecordTransactionRequest{AssignedTo: strPtr(stranger), Status: "Approve"},
			field: "assigned_to",
		},
		{
			name:  "unknown referral",
			req:   dto.RecordTransactionRequest{AssignedTo: strPtr(testManagerID), ReferredTo: strPtr(stranger), Status: "Refer"},
			field: "referred_to",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &approvalStoreStub{}
			svc := NewApprovalService(store, &documentReaderStub{}, validation.New(known()), NewSchemaRegistry(), &dispatcherStub{}, nil, nil, nil, zap.NewNop())

			_, err := svc.Record(context.Background(), "purchase_order", testDocID, tc.req, testActorID)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 422, appErr.Status)
			assert.Equal(t, "The selected "+tc.field+" is invalid.", appErr.Fields[tc.field])
			assert.Nil(t, store.recorded)
		})
	}
}

func TestApprovalRecordUnknownDocumentRow(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{
		"users:" + testActorID:   testActorID,
		"users:" + testManagerID: testManagerID,
	}}
	store := &approvalStoreStub{}
	svc := NewApprovalService(store, &documentReaderStub{}, validation.New(lookup), NewSchemaRegistry(), &dispatcherStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{AssignedTo: strPtr(testManagerID), Status: "Approve"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected document_id is invalid.", fields["document_id"])
	assert.Nil(t, store.recorded)

	lookup.rows["purchase_orders:"+testDocID] = testDocID
	_, err = svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{AssignedTo: strPtr(testManagerID), Status: "Approve"}, testActorID)
	require.NoError(t, err)
	require.NotNil(t, store.recorded)
}

func TestApprovalRecordSurvivesFullNotificationQueue(t *testing.T) {
	queue := &enqueuerStub{err: fmt.Errorf("%w: notifications", jobs.ErrQueueFull)}
	notifier := NewNotificationService(&notificationStoreStub{}, nil, validation.New(nil), nil, nil, nil, nil)
	notifier.UseQueue(queue)
	store := &approvalStoreStub{}
	svc := NewApprovalService(store, &documentReaderStub{}, validation.New(nil), NewSchemaRegistry(), notifier, nil, nil, nil, zap.NewNop())
	assignee := testManagerID

	outcome, err := svc.Record(context.Background(), "purchase_order", testDocID, dto.RecordTransactionRequest{AssignedTo: &assignee, Status: "Approve"}, testActorID)
	require.NoError(t, err)
	assert.Equal(t, "Approved", outcome.Document.Status)
	assert.Empty(t, queue.jobs)

	err = notifier.Dispatch(context.Background(), approvalEvent())
	assert.ErrorIs(t, err, jobs.ErrQueueFull)
}
