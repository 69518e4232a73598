package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
)

var shiftTestColumns = []string{
	"id", "staff_id", "staff_name", "branch_id", "terminal_id", "role", "status",
	"check_in", "check_out", "opening_amount", "closing_amount", "expected_amount", "variance",
	"payment_amount", "transfer_pending", "transferred_to_shift_id", "is_day_start", "created_at", "updated_at",
}

func shiftRow(id, staffID int64, role models.StaffRole, status models.ShiftStatus, opening float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(shiftTestColumns).AddRow(
		id, staffID, "Test Staff", "b1", "t1", string(role), string(status),
		now, nil, opening, nil, nil, nil,
		nil, false, nil, false, now, now,
	)
}

var drawerSessionColumns = []string{
	"id", "shift_id", "branch_id", "terminal_id", "opening_amount", "cash_sales", "card_sales",
	"cash_refunds", "total_expenses", "total_drops", "driver_cash_given", "driver_cash_returned",
	"total_staff_payments", "closing_amount", "expected_amount", "variance", "closed_at",
	"reconciled", "reconciled_by", "reconciliation_notes", "created_at", "updated_at",
}

func drawerSessionRow(id, shiftID int64, opening, cashSales, cashRefunds float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(drawerSessionColumns).AddRow(
		id, shiftID, "b1", "t1", opening, cashSales, 0.0,
		cashRefunds, 0.0, 0.0, 0.0, 0.0,
		0.0, nil, nil, nil, nil,
		false, nil, nil, now, now,
	)
}

// newShiftServiceTest wires the full service stack over a sqlmock DB.
func newShiftServiceTest(t *testing.T) (ShiftService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	shiftRepo := repositories.NewShiftRepository(db)
	drawerRepo := repositories.NewDrawerRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)
	earningRepo := repositories.NewDriverEarningRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	syncRepo := repositories.NewSyncRepository(db)

	ledger := NewDrawerLedger(drawerRepo, syncRepo)
	transfer := NewTransferCoordinator(shiftRepo, earningRepo, ledger, syncRepo, time.Minute)
	svc := NewShiftService(db, shiftRepo, expenseRepo, earningRepo, orderRepo, ledger, transfer, syncRepo)

	return svc, mock, func() { db.Close() }
}

func TestOpenShift_AlreadyActive(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Test Staff"))
	mock.ExpectQuery("FROM shifts WHERE staff_id").
		WithArgs(int64(7)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftActive, 100))
	mock.ExpectRollback()

	_, err := svc.OpenShift(&models.Shift{
		StaffID: 7, BranchID: "b1", TerminalID: "t1",
		Role: models.RoleCashier, OpeningAmount: 100,
	})
	assert.ErrorIs(t, err, ErrShiftAlreadyActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenShift_DriverWithFloatNeedsActiveCashier(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Test Driver"))
	mock.ExpectQuery("FROM shifts WHERE staff_id").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO shifts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(12), time.Now(), time.Now()))
	mock.ExpectQuery("FROM cash_drawer_sessions d").
		WithArgs("b1", "t1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.OpenShift(&models.Shift{
		StaffID: 9, BranchID: "b1", TerminalID: "t1",
		Role: models.RoleDriver, OpeningAmount: 50,
	})
	assert.ErrorIs(t, err, ErrNoActiveCashier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenShift_CashierCreatesDrawer(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Test Staff"))
	mock.ExpectQuery("FROM shifts WHERE staff_id").
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("b1", "t1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO shifts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(11), time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO cash_drawer_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(21), time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("transfer_pending = TRUE").
		WithArgs("b1", "t1").
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	shift, err := svc.OpenShift(&models.Shift{
		StaffID: 7, BranchID: "b1", TerminalID: "t1",
		Role: models.RoleCashier, OpeningAmount: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), shift.ID)
	assert.True(t, shift.IsDayStart)
	assert.Equal(t, models.ShiftActive, shift.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenShift_ManagerShiftAlreadyCountsTowardDayStart(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Test Staff"))
	mock.ExpectQuery("FROM shifts WHERE staff_id").
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)
	// A manager opened a drawer earlier today, so the count is non-zero
	// and this cashier shift must not be flagged day-start.
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("b1", "t1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO shifts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(13), time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO cash_drawer_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(22), time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("transfer_pending = TRUE").
		WithArgs("b1", "t1").
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	shift, err := svc.OpenShift(&models.Shift{
		StaffID: 7, BranchID: "b1", TerminalID: "t1",
		Role: models.RoleCashier, OpeningAmount: 100,
	})
	require.NoError(t, err)
	assert.False(t, shift.IsDayStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseShift_CashierStampsReconciliation(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	closedBy := int64(9)
	notes := "till short after refund"

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftActive, 100))
	mock.ExpectQuery("FROM cash_drawer_sessions WHERE shift_id").
		WithArgs(int64(5)).
		WillReturnRows(drawerSessionRow(21, 5, 100, 250, 20))
	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))
	mock.ExpectQuery("FROM cash_drawer_sessions WHERE shift_id").
		WithArgs(int64(5)).
		WillReturnRows(drawerSessionRow(21, 5, 100, 250, 20))
	mock.ExpectQuery("FROM orders").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"cash_sales", "cash_refunds"}).AddRow(250.0, 20.0))
	mock.ExpectQuery("payment_method = 'card'").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"card_sales"}).AddRow(90.0))
	mock.ExpectQuery("FROM expenses").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(30.0))
	mock.ExpectQuery("SET cash_sales = cash_sales").
		WillReturnRows(drawerSessionRow(21, 5, 100, 250, 20))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SET cash_refunds = cash_refunds").
		WillReturnRows(drawerSessionRow(21, 5, 100, 250, 20))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(2, 1))
	// Expected: 100 opening + 250 cash - 20 refunds - 30 expenses = 300.
	// Counted 290, so variance is -10, and the close carries who
	// reconciled the till and their notes.
	mock.ExpectQuery("reconciled = TRUE, reconciled_by").
		WithArgs(int64(21), 290.0, 300.0, -10.0, sqlmock.AnyArg(), closedBy, &notes, sqlmock.AnyArg()).
		WillReturnRows(drawerSessionRow(21, 5, 100, 250, 20))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("UPDATE shifts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	shift, err := svc.CloseShift(5, 290, closedBy, &notes, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, shift.Status)
	require.NotNil(t, shift.Variance)
	assert.InDelta(t, -10.0, *shift.Variance, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseShift_AlreadyClosed(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftClosed, 100))
	mock.ExpectRollback()

	_, err := svc.CloseShift(5, 120, 7, nil, nil)
	assert.ErrorIs(t, err, ErrShiftAlreadyClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCashDrop_RejectsDrawerlessRole(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(8)).
		WillReturnRows(shiftRow(8, 9, models.RoleDriver, models.ShiftActive, 50))
	mock.ExpectRollback()

	_, err := svc.RecordCashDrop(8, 40)
	assert.ErrorIs(t, err, ErrShiftValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDriverEarning_DerivesCashToReturn(t *testing.T) {
	svc, mock, cleanup := newShiftServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(8)).
		WillReturnRows(shiftRow(8, 9, models.RoleDriver, models.ShiftActive, 50))
	mock.ExpectQuery("INSERT INTO driver_earnings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(31), time.Now()))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	earning, err := svc.RecordDriverEarning(&models.DriverEarning{
		ShiftID: 8, OrderID: 100, CashCollected: 80, CardAmount: 30,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, earning.CashToReturn, 1e-9)
	assert.False(t, earning.Transferred)
	assert.NoError(t, mock.ExpectationsWereMet())
}
