package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
)

func newCoordinatorTest(t *testing.T, ttl time.Duration) (TransferCoordinator, repositories.SQLExecutor, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	shiftRepo := repositories.NewShiftRepository(db)
	earningRepo := repositories.NewDriverEarningRepository(db)
	syncRepo := repositories.NewSyncRepository(db)
	ledger := NewDrawerLedger(repositories.NewDrawerRepository(db), syncRepo)
	coordinator := NewTransferCoordinator(shiftRepo, earningRepo, ledger, syncRepo, ttl)

	return coordinator, db, mock, func() { db.Close() }
}

// A hand-off must conserve the float: the outgoing cashier's drawer
// gives up exactly what the incoming cashier's drawer assumes.
func TestHandOff_FloatMovesBetweenDrawersUnchanged(t *testing.T) {
	coordinator, db, mock, cleanup := newCoordinatorTest(t, time.Minute)
	defer cleanup()

	outgoing := &models.Shift{ID: 5, BranchID: "b1", TerminalID: "t1", Role: models.RoleCashier}
	incoming := &models.Shift{ID: 11, BranchID: "b1", TerminalID: "t1", Role: models.RoleCashier}

	// Release: driver 8 carries a 50 float drawn from drawer 21.
	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(shiftRow(8, 9, models.RoleDriver, models.ShiftActive, 50))
	mock.ExpectExec("SET transfer_pending = TRUE").
		WithArgs(int64(8), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE driver_earnings SET transferred = TRUE").
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SET driver_cash_given = driver_cash_given").
		WithArgs(int64(21), -50.0, sqlmock.AnyArg()).
		WillReturnRows(drawerSessionRow(21, 5, 100, 0, 0))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(2, 1))

	released, err := coordinator.ReleaseDrivers(db, outgoing, 21)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, models.TransferPending, released[0].TransferState())

	// Claim: the same 50 lands on the new cashier's drawer 22.
	pending := sqlmock.NewRows(shiftTestColumns).AddRow(
		int64(8), int64(9), "Test Driver", "b1", "t1", "driver", "active",
		time.Now(), nil, 50.0, nil, nil, nil,
		nil, true, nil, false, time.Now(), time.Now(),
	)
	mock.ExpectQuery("transfer_pending = TRUE").
		WithArgs("b1", "t1").
		WillReturnRows(pending)
	mock.ExpectExec("SET transfer_pending = FALSE, transferred_to_shift_id").
		WithArgs(int64(8), int64(11), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SET driver_cash_given = driver_cash_given").
		WithArgs(int64(22), 50.0, sqlmock.AnyArg()).
		WillReturnRows(drawerSessionRow(22, 11, 100, 0, 0))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("INSERT INTO sync_queue").
		WillReturnResult(sqlmock.NewResult(4, 1))

	claimed, err := coordinator.ClaimPendingDrivers(db, incoming, 22)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, models.TransferClaimed, claimed[0].TransferState())
	require.NotNil(t, claimed[0].TransferredToShiftID)
	assert.Equal(t, int64(11), *claimed[0].TransferredToShiftID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveDrivers_ServedFromCacheWithinTTL(t *testing.T) {
	coordinator, _, mock, cleanup := newCoordinatorTest(t, time.Hour)
	defer cleanup()

	// A single query expectation: the second call must not hit the store.
	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(shiftRow(8, 9, "driver", "active", 50))

	first, err := coordinator.ActiveDrivers("b1", "t1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := coordinator.ActiveDrivers("b1", "t1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveDrivers_DifferentTerminalBypassesCache(t *testing.T) {
	coordinator, _, mock, cleanup := newCoordinatorTest(t, time.Hour)
	defer cleanup()

	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(shiftRow(8, 9, "driver", "active", 50))
	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t2").
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))

	_, err := coordinator.ActiveDrivers("b1", "t1")
	require.NoError(t, err)
	drivers, err := coordinator.ActiveDrivers("b1", "t2")
	require.NoError(t, err)
	assert.Empty(t, drivers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveDrivers_ExpiredTTLRefetches(t *testing.T) {
	coordinator, _, mock, cleanup := newCoordinatorTest(t, time.Nanosecond)
	defer cleanup()

	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(shiftRow(8, 9, "driver", "active", 50))
	mock.ExpectQuery("role = 'driver'").
		WithArgs("b1", "t1").
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))

	_, err := coordinator.ActiveDrivers("b1", "t1")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	drivers, err := coordinator.ActiveDrivers("b1", "t1")
	require.NoError(t, err)
	assert.Empty(t, drivers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
