package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/models"
)

func TestDepartmentRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "parent_id", "manager_id", "created_at", "updated_at"}).
		AddRow("dep-1", "Finance", "FIN", nil, "user-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + departmentColumns + " FROM departments WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(code) LIKE $1) ORDER BY code ASC")).
		WithArgs("%fin%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WithArgs("%fin%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.DepartmentFilter{Search: "FIN"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ManagerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE departments SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Department{ID: "dep-x", Name: "X", Code: "X"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterDataDuplicateCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	unique := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO departments")).WillReturnError(unique)
	err := NewDepartmentRepository(db).Create(context.Background(), &models.Department{Name: "Finance", Code: "FIN"})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE departments SET name")).WillReturnError(unique)
	err = NewDepartmentRepository(db).Update(context.Background(), &models.Department{ID: "dep-1", Name: "Finance", Code: "FIN"})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO warehouses")).WillReturnError(unique)
	err = NewWarehouseRepository(db).Create(context.Background(), &models.Warehouse{Name: "Main", Code: "WH-01"})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO warehouses")).WillReturnError(sql.ErrConnDone)
	err = NewWarehouseRepository(db).Create(context.Background(), &models.Warehouse{Name: "Main", Code: "WH-01"})
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarehouseRepositoryCreateTransferDefaultsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWarehouseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_transfers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	transfer := &models.InventoryTransfer{
		ItemName:        "Cement",
		Quantity:        decimal.NewFromInt(40),
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		RequestedBy:     "user-1",
	}
	require.NoError(t, repo.CreateTransfer(context.Background(), transfer))
	assert.Equal(t, models.TransferPending, transfer.Status)
	assert.NotEmpty(t, transfer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarehouseRepositoryListTransfersByWarehouse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWarehouseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "item_name", "quantity", "from_warehouse_id", "to_warehouse_id", "requested_by", "status", "notes", "created_at"}).
		AddRow("tr-1", "Cement", "40", "wh-1", "wh-2", "user-1", "Pending", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_transfers WHERE 1=1 AND (from_warehouse_id = $1 OR to_warehouse_id = $1) AND status = $2")).
		WithArgs("wh-1", "Pending").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inventory_transfers")).
		WithArgs("wh-1", "Pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.ListTransfers(context.Background(), models.WarehouseFilter{WarehouseID: "wh-1", Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(40)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryDescriptionsOldestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_descriptions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	entry := &models.TaskDescription{TaskID: "task-1", UserID: "user-1", Action: models.TaskActionRefer, Description: "needs finance review"}
	require.NoError(t, repo.AddDescription(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "task_id", "user_id", "action", "description", "created_at"}).
		AddRow("d-1", "task-1", "user-1", "Refer", "needs finance review", now).
		AddRow("d-2", "task-1", "user-2", "Approve", "ok", now.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM task_descriptions WHERE task_id = $1 ORDER BY created_at ASC")).
		WithArgs("task-1").
		WillReturnRows(rows)

	entries, err := repo.ListDescriptions(context.Background(), "task-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.TaskActionRefer, entries[0].Action)
	assert.Equal(t, models.TaskActionApprove, entries[1].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
