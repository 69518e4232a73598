package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// DrawerRepository defines the interface for cash drawer session
// database operations. All additive mutators are single-row atomic
// updates that return the complete post-mutation snapshot.
type DrawerRepository interface {
	CreateSession(executor SQLExecutor, session *models.CashDrawerSession) error
	GetByShiftID(executor SQLExecutor, shiftID int64) (*models.CashDrawerSession, error)
	GetActiveByTerminal(executor SQLExecutor, branchID, terminalID string) (*models.CashDrawerSession, error)
	AddCashGiven(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddCashReturned(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddExpense(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddStaffPayment(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddCashDrop(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddSale(executor SQLExecutor, sessionID int64, cashDelta, cardDelta float64) (*models.CashDrawerSession, error)
	AddRefund(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	CloseSession(executor SQLExecutor, sessionID int64, closing, expected, variance float64, closedBy int64, notes *string, closedAt time.Time) (*models.CashDrawerSession, error)
	AggregatesForDate(branchID, terminalID, date string) (*models.DrawerSummary, error)
	ListTerminalsForDate(branchID, date string) ([]string, error)
	CountUnclosedForDate(branchID, date string) (int, error)
	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type drawerRepository struct {
	db *sql.DB
}

// NewDrawerRepository creates a new instance of DrawerRepository.
func NewDrawerRepository(db *sql.DB) DrawerRepository {
	return &drawerRepository{db: db}
}

const drawerColumns = `id, shift_id, branch_id, terminal_id, opening_amount, cash_sales, card_sales,
	cash_refunds, total_expenses, total_drops, driver_cash_given, driver_cash_returned,
	total_staff_payments, closing_amount, expected_amount, variance, closed_at,
	reconciled, reconciled_by, reconciliation_notes, created_at, updated_at`

func scanDrawerRow(row scanner) (*models.CashDrawerSession, error) {
	var s models.CashDrawerSession
	err := row.Scan(
		&s.ID, &s.ShiftID, &s.BranchID, &s.TerminalID, &s.OpeningAmount, &s.CashSales, &s.CardSales,
		&s.CashRefunds, &s.TotalExpenses, &s.TotalDrops, &s.DriverCashGiven, &s.DriverCashReturned,
		&s.TotalStaffPayments, &s.ClosingAmount, &s.ExpectedAmount, &s.Variance, &s.ClosedAt,
		&s.Reconciled, &s.ReconciledBy, &s.ReconciliationNotes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning cash drawer session: %v", ErrDatabaseError, err)
	}
	return &s, nil
}

func (r *drawerRepository) CreateSession(executor SQLExecutor, session *models.CashDrawerSession) error {
	query := `INSERT INTO cash_drawer_sessions
	            (shift_id, branch_id, terminal_id, opening_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	err := executor.QueryRow(query,
		session.ShiftID, session.BranchID, session.TerminalID, session.OpeningAmount,
		currentTime, currentTime,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: shift %d already has a drawer session", ErrDuplicateKey, session.ShiftID)
			}
		}
		return fmt.Errorf("%w: creating cash drawer session: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *drawerRepository) GetByShiftID(executor SQLExecutor, shiftID int64) (*models.CashDrawerSession, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + drawerColumns + ` FROM cash_drawer_sessions WHERE shift_id = $1`
	return scanDrawerRow(executor.QueryRow(query, shiftID))
}

// GetActiveByTerminal resolves the drawer of the terminal's currently
// active cashier shift. Concurrent writers serialize on this row through
// the store's transaction isolation.
func (r *drawerRepository) GetActiveByTerminal(executor SQLExecutor, branchID, terminalID string) (*models.CashDrawerSession, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + prefixedDrawerColumns("d") + `
	          FROM cash_drawer_sessions d
	          JOIN shifts s ON s.id = d.shift_id
	          WHERE d.branch_id = $1 AND d.terminal_id = $2 AND s.status = 'active' AND d.closed_at IS NULL
	          ORDER BY d.created_at DESC
	          LIMIT 1`
	return scanDrawerRow(executor.QueryRow(query, branchID, terminalID))
}

func prefixedDrawerColumns(alias string) string {
	return alias + `.id, ` + alias + `.shift_id, ` + alias + `.branch_id, ` + alias + `.terminal_id, ` +
		alias + `.opening_amount, ` + alias + `.cash_sales, ` + alias + `.card_sales, ` +
		alias + `.cash_refunds, ` + alias + `.total_expenses, ` + alias + `.total_drops, ` +
		alias + `.driver_cash_given, ` + alias + `.driver_cash_returned, ` + alias + `.total_staff_payments, ` +
		alias + `.closing_amount, ` + alias + `.expected_amount, ` + alias + `.variance, ` + alias + `.closed_at, ` +
		alias + `.reconciled, ` + alias + `.reconciled_by, ` + alias + `.reconciliation_notes, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

// addToColumn performs one additive update against a whitelisted totals
// column and returns the post-mutation row.
func (r *drawerRepository) addToColumn(executor SQLExecutor, sessionID int64, column string, delta float64) (*models.CashDrawerSession, error) {
	query := fmt.Sprintf(`UPDATE cash_drawer_sessions
	          SET %s = %s + $2, updated_at = $3
	          WHERE id = $1
	          RETURNING `+drawerColumns, column, column)
	session, err := scanDrawerRow(executor.QueryRow(query, sessionID, delta, time.Now()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: adding %.2f to %s of session %d: %v", ErrDatabaseError, delta, column, sessionID, err)
	}
	return session, nil
}

func (r *drawerRepository) AddCashGiven(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "driver_cash_given", delta)
}

func (r *drawerRepository) AddCashReturned(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "driver_cash_returned", delta)
}

func (r *drawerRepository) AddExpense(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "total_expenses", delta)
}

func (r *drawerRepository) AddStaffPayment(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "total_staff_payments", delta)
}

func (r *drawerRepository) AddCashDrop(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "total_drops", delta)
}

// AddSale books settled order money onto the drawer's running sale
// totals, split by payment method.
func (r *drawerRepository) AddSale(executor SQLExecutor, sessionID int64, cashDelta, cardDelta float64) (*models.CashDrawerSession, error) {
	query := `UPDATE cash_drawer_sessions
	          SET cash_sales = cash_sales + $2, card_sales = card_sales + $3, updated_at = $4
	          WHERE id = $1
	          RETURNING ` + drawerColumns
	session, err := scanDrawerRow(executor.QueryRow(query, sessionID, cashDelta, cardDelta, time.Now()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: adding sales to session %d: %v", ErrDatabaseError, sessionID, err)
	}
	return session, nil
}

func (r *drawerRepository) AddRefund(executor SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return r.addToColumn(executor, sessionID, "cash_refunds", delta)
}

// CloseSession stamps the final figures and the reconciliation trail in
// one update. The closed_at guard makes a second close a no-match.
func (r *drawerRepository) CloseSession(executor SQLExecutor, sessionID int64, closing, expected, variance float64, closedBy int64, notes *string, closedAt time.Time) (*models.CashDrawerSession, error) {
	query := `UPDATE cash_drawer_sessions
	          SET closing_amount = $2, expected_amount = $3, variance = $4, closed_at = $5,
	              reconciled = TRUE, reconciled_by = $6, reconciliation_notes = $7, updated_at = $8
	          WHERE id = $1 AND closed_at IS NULL
	          RETURNING ` + drawerColumns
	session, err := scanDrawerRow(executor.QueryRow(query, sessionID, closing, expected, variance, closedAt, closedBy, notes, time.Now()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: closing session %d: %v", ErrDatabaseError, sessionID, err)
	}
	return session, nil
}

// AggregatesForDate sums drawer figures for the branch and date. An
// empty terminalID spans the whole branch.
func (r *drawerRepository) AggregatesForDate(branchID, terminalID, date string) (*models.DrawerSummary, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(opening_amount), 0),
	                 COALESCE(SUM(closing_amount), 0),
	                 COALESCE(SUM(expected_amount), 0),
	                 COALESCE(SUM(variance), 0),
	                 COALESCE(SUM(total_drops), 0),
	                 COALESCE(SUM(driver_cash_given), 0),
	                 COALESCE(SUM(driver_cash_returned), 0)
	          FROM cash_drawer_sessions
	          WHERE branch_id = $1 AND created_at::date = $2::date`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		query += ` AND terminal_id = $3`
		args = append(args, terminalID)
	}
	var s models.DrawerSummary
	err := r.db.QueryRow(query, args...).Scan(
		&s.Sessions, &s.OpeningTotal, &s.ClosingTotal, &s.ExpectedTotal,
		&s.VarianceTotal, &s.DropsTotal, &s.DriverCashGiven, &s.DriverCashReturned,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating drawer sessions: %v", ErrDatabaseError, err)
	}
	return &s, nil
}

// ListTerminalsForDate returns the distinct terminals that opened a
// drawer on the date, in stable order for report fan-out.
func (r *drawerRepository) ListTerminalsForDate(branchID, date string) ([]string, error) {
	query := `SELECT DISTINCT terminal_id FROM cash_drawer_sessions
	          WHERE branch_id = $1 AND created_at::date = $2::date
	          ORDER BY terminal_id`
	rows, err := r.db.Query(query, branchID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: listing terminals for date: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var terminals []string
	for rows.Next() {
		var terminalID string
		if err := rows.Scan(&terminalID); err != nil {
			return nil, fmt.Errorf("%w: scanning terminal id: %v", ErrDatabaseError, err)
		}
		terminals = append(terminals, terminalID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating terminals: %v", ErrDatabaseError, err)
	}
	return terminals, nil
}

func (r *drawerRepository) CountUnclosedForDate(branchID, date string) (int, error) {
	query := `SELECT COUNT(*) FROM cash_drawer_sessions
	          WHERE branch_id = $1 AND created_at::date <= $2::date AND closed_at IS NULL`
	var count int
	if err := r.db.QueryRow(query, branchID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting unclosed drawers: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *drawerRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM cash_drawer_sessions WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging cash drawer sessions: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
