package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_terminal_backend/internal/repositories"
)

func newEODServiceTest(t *testing.T) (EODService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := NewEODService(db,
		repositories.NewShiftRepository(db),
		repositories.NewDrawerRepository(db),
		repositories.NewExpenseRepository(db),
		repositories.NewDriverEarningRepository(db),
		repositories.NewOrderRepository(db),
		repositories.NewTableRepository(db),
		repositories.NewSyncRepository(db),
	)
	return svc, mock, func() { db.Close() }
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestCanFinalize_GateOrder(t *testing.T) {
	tests := []struct {
		name         string
		counts       []int // consumed in gate order; shorter slices stop early
		expectedCode string
	}{
		{"open_driver_transfer_blocks_first", []int{1}, GateDriverTransferOpen},
		{"active_shifts_block_second", []int{0, 2}, GateActiveShifts},
		{"open_drawer_blocks_third", []int{0, 0, 1}, GateDrawerOpen},
		{"open_orders_block_fourth", []int{0, 0, 0, 3}, GateOpenOrders},
		{"all_clear", []int{0, 0, 0, 0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, cleanup := newEODServiceTest(t)
			defer cleanup()

			for _, n := range tt.counts {
				mock.ExpectQuery("SELECT COUNT").
					WithArgs("b1", "2026-03-14").
					WillReturnRows(countRows(n))
			}

			check, err := svc.CanFinalize("b1", "2026-03-14")
			require.NoError(t, err)
			if tt.expectedCode == "" {
				assert.True(t, check.OK)
				assert.Empty(t, check.Code)
			} else {
				assert.False(t, check.OK)
				assert.Equal(t, tt.expectedCode, check.Code)
				assert.NotEmpty(t, check.Reason)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFinalizeDay_BlockedWithoutPurging(t *testing.T) {
	svc, mock, cleanup := newEODServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("b1", "2026-03-14").
		WillReturnRows(countRows(1))

	_, err := svc.FinalizeDay("b1", "2026-03-14")
	assert.ErrorIs(t, err, ErrDayNotFinalized)
	// No transaction, no deletes.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeDay_PurgesEverything(t *testing.T) {
	svc, mock, cleanup := newEODServiceTest(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("b1", "2026-03-14").
			WillReturnRows(countRows(0))
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM driver_earnings").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM staff_payments").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM expenses").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM table_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cash_drawer_sessions").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM orders").WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectExec("DELETE FROM shifts").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("DELETE FROM sync_queue").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec("UPDATE dining_tables").WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectCommit()

	result, err := svc.FinalizeDay("b1", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.PurgedShifts)
	assert.Equal(t, int64(9), result.PurgedOrders)
	assert.Equal(t, int64(2), result.PurgedDrawers)
	assert.Equal(t, int64(6), result.TablesReset)
	assert.NoError(t, mock.ExpectationsWereMet())
}
