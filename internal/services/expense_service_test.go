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

func newExpenseServiceTest(t *testing.T) (ExpenseService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	expenseRepo := repositories.NewExpenseRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	syncRepo := repositories.NewSyncRepository(db)
	ledger := NewDrawerLedger(repositories.NewDrawerRepository(db), syncRepo)
	svc := NewExpenseService(db, expenseRepo, shiftRepo, ledger, syncRepo)

	return svc, mock, func() { db.Close() }
}

func expenseRow(id int64, status models.ExpenseStatus, amount float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "shift_id", "expense_type", "amount", "description", "status", "created_at", "updated_at",
	}).AddRow(id, int64(5), "supplies", amount, nil, string(status), now, now)
}

func TestRecordExpense_RejectsNonPositiveAmount(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	_, err := svc.RecordExpense(&models.Expense{ShiftID: 5, ExpenseType: "supplies", Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordExpense(&models.Expense{ShiftID: 5, ExpenseType: "supplies", Amount: -10})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordExpense_DefaultsApprovedAndFeedsDrawer(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftActive, 100))
	mock.ExpectQuery("INSERT INTO expenses").
		WithArgs(int64(5), "supplies", 30.0, nil, "approved", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), time.Now(), time.Now()))
	mock.ExpectQuery("FROM cash_drawer_sessions WHERE shift_id").
		WithArgs(int64(5)).
		WillReturnRows(drawerSessionRow(21, 5, 100, 0, 0))
	mock.ExpectQuery("SET total_expenses = total_expenses").
		WithArgs(int64(21), 30.0, sqlmock.AnyArg()).
		WillReturnRows(drawerSessionRow(21, 5, 100, 0, 0))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	expense, err := svc.RecordExpense(&models.Expense{ShiftID: 5, ExpenseType: "supplies", Amount: 30})
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseApproved, expense.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordExpense_ExplicitPendingSkipsDrawer(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftActive, 100))
	mock.ExpectQuery("INSERT INTO expenses").
		WithArgs(int64(5), "supplies", 30.0, nil, "pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(4), time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expense, err := svc.RecordExpense(&models.Expense{
		ShiftID: 5, ExpenseType: "supplies", Amount: 30, Status: models.ExpensePending,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePending, expense.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordExpense_RejectsUnknownStatus(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	_, err := svc.RecordExpense(&models.Expense{
		ShiftID: 5, ExpenseType: "supplies", Amount: 30, Status: models.ExpenseRejected,
	})
	assert.ErrorIs(t, err, ErrExpenseStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordExpense_RejectsClosedShift(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shifts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(shiftRow(5, 7, models.RoleCashier, models.ShiftClosed, 100))
	mock.ExpectRollback()

	_, err := svc.RecordExpense(&models.Expense{ShiftID: 5, ExpenseType: "supplies", Amount: 30})
	assert.ErrorIs(t, err, ErrShiftAlreadyClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveExpense_OnlyPendingTransitions(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM expenses WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(expenseRow(3, models.ExpenseApproved, 30))
	mock.ExpectRollback()

	_, err := svc.ApproveExpense(3)
	assert.ErrorIs(t, err, ErrExpenseStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectExpense_MarksRejectedWithoutDrawerTouch(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM expenses WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(expenseRow(3, models.ExpensePending, 30))
	mock.ExpectExec("UPDATE expenses SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expense, err := svc.RejectExpense(3)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseRejected, expense.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStaffPayment_RequiresActiveCashier(t *testing.T) {
	svc, mock, cleanup := newExpenseServiceTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cash_drawer_sessions d").
		WithArgs("b1", "t1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.RecordStaffPayment("b1", "t1", &models.StaffPayment{
		PaidToStaffID: 9, Amount: 50, PaymentType: models.PaymentWage,
	})
	assert.ErrorIs(t, err, ErrCashierNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
