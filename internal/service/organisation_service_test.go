package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/validation"
)

const (
	warehouseA = "0d5c9f1e-63a4-4f5a-9c41-8b6f0a000001"
	warehouseB = "0d5c9f1e-63a4-4f5a-9c41-8b6f0a000002"
	taskID     = "0d5c9f1e-63a4-4f5a-9c41-8b6f0a000010"
)

// tableLookup answers exists/unique checks from in-memory tables keyed by
// "table:value".
type tableLookup struct {
	rows map[string]string
}

func (l *tableLookup) Exists(ctx context.Context, ref validation.Ref, value interface{}) (bool, error) {
	v, _ := value.(string)
	_, ok := l.rows[ref.Table+":"+v]
	return ok, nil
}

func (l *tableLookup) Taken(ctx context.Context, ref validation.Ref, value interface{}, ignoreID string) (bool, error) {
	v, _ := value.(string)
	owner, ok := l.rows[ref.Table+":"+v]
	return ok && owner != ignoreID, nil
}

type departmentStoreStub struct {
	lookup    *tableLookup
	items     map[string]*models.Department
	createErr error
}

func (s *departmentStoreStub) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	return nil, len(s.items), nil
}

func (s *departmentStoreStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (s *departmentStoreStub) Create(ctx context.Context, item *models.Department) error {
	if s.createErr != nil {
		return s.createErr
	}
	item.ID = "dept-" + item.Code
	s.items[item.ID] = item
	s.lookup.rows["departments:"+item.Code] = item.ID
	return nil
}

func (s *departmentStoreStub) Update(ctx context.Context, item *models.Department) error {
	s.items[item.ID] = item
	return nil
}

func (s *departmentStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type warehouseStoreStub struct {
	transfers []*models.InventoryTransfer
	createErr error
}

func (s *warehouseStoreStub) List(ctx context.Context, filter models.WarehouseFilter) ([]models.Warehouse, int, error) {
	return nil, 0, nil
}

func (s *warehouseStoreStub) FindByID(ctx context.Context, id string) (*models.Warehouse, error) {
	return nil, sql.ErrNoRows
}

func (s *warehouseStoreStub) Create(ctx context.Context, item *models.Warehouse) error {
	return s.createErr
}

func (s *warehouseStoreStub) Update(ctx context.Context, item *models.Warehouse) error { return nil }

func (s *warehouseStoreStub) Delete(ctx context.Context, id string) error { return nil }

func (s *warehouseStoreStub) CreateTransfer(ctx context.Context, transfer *models.InventoryTransfer) error {
	transfer.ID = "transfer-1"
	transfer.Status = models.TransferPending
	s.transfers = append(s.transfers, transfer)
	return nil
}

func (s *warehouseStoreStub) ListTransfers(ctx context.Context, filter models.WarehouseFilter) ([]models.InventoryTransfer, int, error) {
	return nil, len(s.transfers), nil
}

type taskStoreStub struct {
	tasks   map[string]*models.Task
	entries []models.TaskDescription
}

func (s *taskStoreStub) Create(ctx context.Context, task *models.Task) error {
	task.ID = taskID
	s.tasks[task.ID] = task
	return nil
}

func (s *taskStoreStub) FindByID(ctx context.Context, id string) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return task, nil
}

func (s *taskStoreStub) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	return nil, len(s.tasks), nil
}

func (s *taskStoreStub) AddDescription(ctx context.Context, entry *models.TaskDescription) error {
	entry.ID = "entry"
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *taskStoreStub) ListDescriptions(ctx context.Context, taskID string) ([]models.TaskDescription, error) {
	return s.entries, nil
}

func TestDepartmentCodeMustBeUnique(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{}}
	store := &departmentStoreStub{lookup: lookup, items: map[string]*models.Department{}}
	svc := NewDepartmentService(store, validation.New(lookup), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.DepartmentRequest{Name: "Finance", Code: "FIN"}, testActorID)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.DepartmentRequest{Name: "Finance 2", Code: "FIN"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The code has already been taken.", fields["code"])
}

func TestDepartmentCodeRaceIsFieldError(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{}}
	store := &departmentStoreStub{
		lookup:    lookup,
		items:     map[string]*models.Department{},
		createErr: fmt.Errorf("create department: %w", repository.ErrDuplicate),
	}
	svc := NewDepartmentService(store, validation.New(lookup), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.DepartmentRequest{Name: "Finance", Code: "FIN"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The code has already been taken.", fields["code"])
}

func TestWarehouseCodeRaceIsFieldError(t *testing.T) {
	store := &warehouseStoreStub{createErr: fmt.Errorf("create warehouse: %w", repository.ErrDuplicate)}
	svc := NewWarehouseService(store, validation.New(&tableLookup{rows: map[string]string{}}), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.WarehouseRequest{Name: "Main", Code: "WH-01"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The code has already been taken.", fields["code"])
}

func TestDepartmentUpdateKeepsOwnCode(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{}}
	store := &departmentStoreStub{lookup: lookup, items: map[string]*models.Department{}}
	svc := NewDepartmentService(store, validation.New(lookup), nil, nil, nil)
	dept, err := svc.Create(context.Background(), dto.DepartmentRequest{Name: "Finance", Code: "FIN"}, testActorID)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), dept.ID, dto.DepartmentRequest{Name: "Finance & Tax", Code: "FIN"}, testActorID)
	require.NoError(t, err)
	assert.Equal(t, "Finance & Tax", updated.Name)
}

func TestDepartmentDeleteMissing(t *testing.T) {
	store := &departmentStoreStub{lookup: &tableLookup{}, items: map[string]*models.Department{}}
	svc := NewDepartmentService(store, validation.New(nil), nil, nil, nil)
	err := svc.Delete(context.Background(), "nope", testActorID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTransferRequiresDifferentWarehouses(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{"warehouses:" + warehouseA: warehouseA}}
	store := &warehouseStoreStub{}
	svc := NewWarehouseService(store, validation.New(lookup), nil, nil, nil)
	qty := decimal.NewFromInt(5)

	_, err := svc.CreateTransfer(context.Background(), dto.TransferRequest{
		ItemName:        "Cement",
		Quantity:        &qty,
		FromWarehouseID: warehouseA,
		ToWarehouseID:   warehouseA,
	}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The to_warehouse_id and from_warehouse_id must be different.", fields["to_warehouse_id"])
	assert.Empty(t, store.transfers)
}

func TestTransferUnknownWarehouse(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{"warehouses:" + warehouseA: warehouseA}}
	svc := NewWarehouseService(&warehouseStoreStub{}, validation.New(lookup), nil, nil, nil)
	qty := decimal.NewFromInt(5)

	_, err := svc.CreateTransfer(context.Background(), dto.TransferRequest{
		ItemName: "Cement", Quantity: &qty, FromWarehouseID: warehouseA, ToWarehouseID: warehouseB,
	}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected to_warehouse_id is invalid.", fields["to_warehouse_id"])
}

func TestTransferCreated(t *testing.T) {
	lookup := &tableLookup{rows: map[string]string{"warehouses:" + warehouseA: warehouseA, "warehouses:" + warehouseB: warehouseB}}
	store := &warehouseStoreStub{}
	audit := &auditStub{}
	svc := NewWarehouseService(store, validation.New(lookup), nil, audit, nil)
	qty := decimal.RequireFromString("12.5")

	transfer, err := svc.CreateTransfer(context.Background(), dto.TransferRequest{
		ItemName: "Cement", Quantity: &qty, FromWarehouseID: warehouseA, ToWarehouseID: warehouseB,
	}, testActorID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, transfer.Status)
	assert.Equal(t, testActorID, transfer.RequestedBy)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionTransferCreate, audit.entries[0].Action)
}

func TestTaskDescriptionsAppendInOrder(t *testing.T) {
	store := &taskStoreStub{tasks: map[string]*models.Task{}}
	svc := NewTaskService(store, validation.New(nil), nil, nil, nil)

	task, err := svc.Create(context.Background(), dto.CreateTaskRequest{Title: "Review budget"}, testActorID)
	require.NoError(t, err)

	for _, action := range []string{"Approve", "Refer", "Approve"} {
		_, err := svc.AddDescription(context.Background(), task.ID, dto.TaskActionRequest{Action: action, Description: "note"}, testActorID)
		require.NoError(t, err)
	}

	detail, err := svc.Get(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, detail.Descriptions, 3)
	assert.Equal(t, models.TaskActionRefer, detail.Descriptions[1].Action)
}

func TestTaskDescriptionRejectsUnknownAction(t *testing.T) {
	store := &taskStoreStub{tasks: map[string]*models.Task{taskID: {ID: taskID}}}
	svc := NewTaskService(store, validation.New(nil), nil, nil, nil)

	_, err := svc.AddDescription(context.Background(), taskID, dto.TaskActionRequest{Action: "Pending", Description: "x"}, testActorID)
	fields := validationFields(t, err)
	assert.Equal(t, "The selected action is invalid.", fields["action"])
}

func TestTaskDescriptionMissingTask(t *testing.T) {
	svc := NewTaskService(&taskStoreStub{tasks: map[string]*models.Task{}}, validation.New(nil), nil, nil, nil)
	_, err := svc.AddDescription(context.Background(), taskID, dto.TaskActionRequest{Action: "Approve", Description: "x"}, testActorID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
