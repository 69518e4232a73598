package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drawerTestColumns = []string{
	"id", "shift_id", "branch_id", "terminal_id", "opening_amount", "cash_sales", "card_sales",
	"cash_refunds", "total_expenses", "total_drops", "driver_cash_given", "driver_cash_returned",
	"total_staff_payments", "closing_amount", "expected_amount", "variance", "closed_at",
	"reconciled", "reconciled_by", "reconciliation_notes", "created_at", "updated_at",
}

func openDrawerRow(id, shiftID int64, opening, given, returned float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(drawerTestColumns).AddRow(
		id, shiftID, "b1", "t1", opening, 0.0, 0.0,
		0.0, 0.0, 0.0, given, returned,
		0.0, nil, nil, nil, nil,
		false, nil, nil, now, now,
	)
}

func newDrawerRepoTest(t *testing.T) (DrawerRepository, SQLExecutor, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewDrawerRepository(db), db, mock, func() { db.Close() }
}

func TestAddCashGiven_ReturnsPostMutationRow(t *testing.T) {
	repo, db, mock, cleanup := newDrawerRepoTest(t)
	defer cleanup()

	mock.ExpectQuery(`UPDATE cash_drawer_sessions\s+SET driver_cash_given = driver_cash_given \+ \$2`).
		WillReturnRows(openDrawerRow(21, 11, 100, 140, 0))

	session, err := repo.AddCashGiven(db, 21, 40)
	require.NoError(t, err)
	assert.Equal(t, 140.0, session.DriverCashGiven)
	assert.False(t, session.IsClosed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCashReturned_AcceptsNegativeDelta(t *testing.T) {
	repo, db, mock, cleanup := newDrawerRepoTest(t)
	defer cleanup()

	mock.ExpectQuery(`SET driver_cash_returned = driver_cash_returned \+ \$2`).
		WithArgs(int64(21), -25.0, sqlmock.AnyArg()).
		WillReturnRows(openDrawerRow(21, 11, 100, 0, -25))

	session, err := repo.AddCashReturned(db, 21, -25)
	require.NoError(t, err)
	assert.Equal(t, -25.0, session.DriverCashReturned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToColumn_MissingSession(t *testing.T) {
	repo, db, mock, cleanup := newDrawerRepoTest(t)
	defer cleanup()

	mock.ExpectQuery(`SET total_drops = total_drops \+ \$2`).
		WillReturnRows(sqlmock.NewRows(drawerTestColumns))

	_, err := repo.AddCashDrop(db, 99, 50)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseSession_StampsTotalsAndReconciliation(t *testing.T) {
	repo, db, mock, cleanup := newDrawerRepoTest(t)
	defer cleanup()

	closedAt := time.Now()
	closedBy := int64(7)
	notes := "till counted twice"
	closed := sqlmock.NewRows(drawerTestColumns).AddRow(
		int64(21), int64(11), "b1", "t1", 100.0, 250.0, 0.0,
		20.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 330.0, 330.0, 0.0, closedAt,
		true, closedBy, notes, closedAt, closedAt,
	)
	mock.ExpectQuery(`SET closing_amount = \$2, expected_amount = \$3, variance = \$4, closed_at = \$5,\s+reconciled = TRUE, reconciled_by = \$6, reconciliation_notes = \$7`).
		WithArgs(int64(21), 330.0, 330.0, 0.0, closedAt, closedBy, &notes, sqlmock.AnyArg()).
		WillReturnRows(closed)

	session, err := repo.CloseSession(db, 21, 330, 330, 0, closedBy, &notes, closedAt)
	require.NoError(t, err)
	require.NotNil(t, session.Variance)
	assert.Equal(t, 0.0, *session.Variance)
	assert.True(t, session.IsClosed())
	assert.True(t, session.Reconciled)
	require.NotNil(t, session.ReconciledBy)
	assert.Equal(t, closedBy, *session.ReconciledBy)
	require.NotNil(t, session.ReconciliationNotes)
	assert.Equal(t, notes, *session.ReconciliationNotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseSession_AlreadyClosedRowYieldsNotFound(t *testing.T) {
	repo, db, mock, cleanup := newDrawerRepoTest(t)
	defer cleanup()

	// closed_at IS NULL guard matches nothing on a second close.
	mock.ExpectQuery(`WHERE id = \$1 AND closed_at IS NULL`).
		WillReturnRows(sqlmock.NewRows(drawerTestColumns))

	_, err := repo.CloseSession(db, 21, 330, 330, 0, 7, nil, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
