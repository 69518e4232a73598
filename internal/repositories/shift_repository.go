package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// ShiftRepository defines the interface for shift-related database operations.
type ShiftRepository interface {
	CreateShift(executor SQLExecutor, shift *models.Shift) error
	GetShiftByID(executor SQLExecutor, id int64) (*models.Shift, error)
	GetShiftByIDForUpdate(executor SQLExecutor, id int64) (*models.Shift, error)
	GetActiveShiftByStaff(executor SQLExecutor, staffID int64) (*models.Shift, error)
	GetActiveDriverShifts(executor SQLExecutor, branchID, terminalID string) ([]models.Shift, error)
	GetPendingTransferShifts(executor SQLExecutor, branchID, terminalID string) ([]models.Shift, error)
	CountCashierShiftsOnDate(executor SQLExecutor, branchID, terminalID, date string) (int, error)
	MarkTransferPending(executor SQLExecutor, shiftID int64) error
	ClaimTransfer(executor SQLExecutor, shiftID, cashierShiftID int64) error
	CloseShift(executor SQLExecutor, shiftID int64, closing, expected, variance float64, payment *float64, checkOut time.Time) error
	GetShiftsByDate(branchID, terminalID, date string, role *models.StaffRole) ([]models.Shift, error)
	GetMostRecentShiftForStaff(executor SQLExecutor, staffID int64) (*models.Shift, error)
	GetStaffName(executor SQLExecutor, staffID int64) (string, error)
	CountOpenTransferDriverShifts(branchID, date string) (int, error)
	CountActiveNonTransferShifts(branchID, date string) (int, error)
	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type shiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository(db *sql.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `id, staff_id, staff_name, branch_id, terminal_id, role, status,
	check_in, check_out, opening_amount, closing_amount, expected_amount, variance,
	payment_amount, transfer_pending, transferred_to_shift_id, is_day_start, created_at, updated_at`

func scanShiftRow(row scanner) (*models.Shift, error) {
	var shift models.Shift
	err := row.Scan(
		&shift.ID, &shift.StaffID, &shift.StaffName, &shift.BranchID, &shift.TerminalID,
		&shift.Role, &shift.Status, &shift.CheckIn, &shift.CheckOut,
		&shift.OpeningAmount, &shift.ClosingAmount, &shift.ExpectedAmount, &shift.Variance,
		&shift.PaymentAmount, &shift.TransferPendingFlag, &shift.TransferredToShiftID,
		&shift.IsDayStart, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
	}
	return &shift, nil
}

func collectShiftRows(rows *sql.Rows) ([]models.Shift, error) {
	defer rows.Close()
	shifts := []models.Shift{}
	for rows.Next() {
		shift, err := scanShiftRow(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shifts: %v", ErrDatabaseError, err)
	}
	return shifts, nil
}

func (r *shiftRepository) CreateShift(executor SQLExecutor, shift *models.Shift) error {
	query := `INSERT INTO shifts
	            (staff_id, staff_name, branch_id, terminal_id, role, status, check_in,
	             opening_amount, transfer_pending, is_day_start, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	if shift.CheckIn.IsZero() {
		shift.CheckIn = currentTime
	}
	shift.Status = models.ShiftActive

	err := executor.QueryRow(query,
		shift.StaffID, shift.StaffName, shift.BranchID, shift.TerminalID,
		shift.Role, shift.Status, shift.CheckIn,
		shift.OpeningAmount, shift.TransferPendingFlag, shift.IsDayStart,
		currentTime, currentTime,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "shifts_one_active_per_staff" {
				return fmt.Errorf("%w: staff %d already has an active shift", ErrDuplicateKey, shift.StaffID)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return fmt.Errorf("%w: staff %d not found", ErrNotFound, shift.StaffID)
			}
		}
		return fmt.Errorf("%w: creating shift: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *shiftRepository) GetShiftByID(executor SQLExecutor, id int64) (*models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`
	return scanShiftRow(executor.QueryRow(query, id))
}

// GetShiftByIDForUpdate locks the shift row for the duration of the
// surrounding transaction.
func (r *shiftRepository) GetShiftByIDForUpdate(executor SQLExecutor, id int64) (*models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 FOR UPDATE`
	return scanShiftRow(executor.QueryRow(query, id))
}

func (r *shiftRepository) GetActiveShiftByStaff(executor SQLExecutor, staffID int64) (*models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE staff_id = $1 AND status = 'active'`
	return scanShiftRow(executor.QueryRow(query, staffID))
}

// GetActiveDriverShifts returns active driver shifts on the terminal that
// are still attached (not pending, not claimed by a successor cashier).
func (r *shiftRepository) GetActiveDriverShifts(executor SQLExecutor, branchID, terminalID string) ([]models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE branch_id = $1 AND terminal_id = $2 AND role = 'driver' AND status = 'active'
	            AND transfer_pending = FALSE AND transferred_to_shift_id IS NULL
	          ORDER BY check_in`
	rows, err := executor.Query(query, branchID, terminalID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing active driver shifts: %v", ErrDatabaseError, err)
	}
	return collectShiftRows(rows)
}

func (r *shiftRepository) GetPendingTransferShifts(executor SQLExecutor, branchID, terminalID string) ([]models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE branch_id = $1 AND terminal_id = $2 AND role = 'driver' AND status = 'active'
	            AND transfer_pending = TRUE
	          ORDER BY check_in`
	rows, err := executor.Query(query, branchID, terminalID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing pending transfer shifts: %v", ErrDatabaseError, err)
	}
	return collectShiftRows(rows)
}

// CountCashierShiftsOnDate counts the terminal's drawer-holding shifts
// on a date. Managers open drawers too, so they count toward day-start
// the same as cashiers.
func (r *shiftRepository) CountCashierShiftsOnDate(executor SQLExecutor, branchID, terminalID, date string) (int, error) {
	executor = fallback(executor, r.db)
	query := `SELECT COUNT(*) FROM shifts
	          WHERE branch_id = $1 AND terminal_id = $2 AND role IN ('cashier', 'manager') AND check_in::date = $3::date`
	var count int
	if err := executor.QueryRow(query, branchID, terminalID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting cashier shifts on date: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *shiftRepository) MarkTransferPending(executor SQLExecutor, shiftID int64) error {
	query := `UPDATE shifts
	          SET transfer_pending = TRUE, transferred_to_shift_id = NULL, updated_at = $2
	          WHERE id = $1 AND status = 'active'`
	result, err := executor.Exec(query, shiftID, time.Now())
	if err != nil {
		return fmt.Errorf("%w: marking shift %d transfer pending: %v", ErrDatabaseError, shiftID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shiftRepository) ClaimTransfer(executor SQLExecutor, shiftID, cashierShiftID int64) error {
	query := `UPDATE shifts
	          SET transfer_pending = FALSE, transferred_to_shift_id = $2, updated_at = $3
	          WHERE id = $1 AND status = 'active' AND transfer_pending = TRUE`
	result, err := executor.Exec(query, shiftID, cashierShiftID, time.Now())
	if err != nil {
		return fmt.Errorf("%w: claiming transfer of shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shiftRepository) CloseShift(executor SQLExecutor, shiftID int64, closing, expected, variance float64, payment *float64, checkOut time.Time) error {
	query := `UPDATE shifts
	          SET status = 'closed', check_out = $2, closing_amount = $3, expected_amount = $4,
	              variance = $5, payment_amount = $6, updated_at = $7
	          WHERE id = $1 AND status = 'active'`
	result, err := executor.Exec(query, shiftID, checkOut, closing, expected, variance, payment, time.Now())
	if err != nil {
		return fmt.Errorf("%w: closing shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetShiftsByDate lists a branch's shifts for a date. An empty
// terminalID spans the whole branch; a nil role spans all roles.
func (r *shiftRepository) GetShiftsByDate(branchID, terminalID, date string, role *models.StaffRole) ([]models.Shift, error) {
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE branch_id = $1 AND check_in::date = $2::date`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		args = append(args, terminalID)
		query += fmt.Sprintf(` AND terminal_id = $%d`, len(args))
	}
	if role != nil {
		args = append(args, *role)
		query += fmt.Sprintf(` AND role = $%d`, len(args))
	}
	query += ` ORDER BY role, check_in`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing shifts by date: %v", ErrDatabaseError, err)
	}
	return collectShiftRows(rows)
}

// GetMostRecentShiftForStaff prefers an active shift; otherwise it
// returns the latest shift by check-in time.
func (r *shiftRepository) GetMostRecentShiftForStaff(executor SQLExecutor, staffID int64) (*models.Shift, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE staff_id = $1
	          ORDER BY (status = 'active') DESC, check_in DESC
	          LIMIT 1`
	return scanShiftRow(executor.QueryRow(query, staffID))
}

func (r *shiftRepository) GetStaffName(executor SQLExecutor, staffID int64) (string, error) {
	executor = fallback(executor, r.db)
	query := `SELECT COALESCE(full_name, username) FROM users WHERE id = $1 AND is_active = TRUE`
	var name string
	err := executor.QueryRow(query, staffID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: resolving staff name for %d: %v", ErrDatabaseError, staffID, err)
	}
	return name, nil
}

// CountOpenTransferDriverShifts counts driver shifts on the date that are
// still open and sitting in a pending or claimed transfer state.
func (r *shiftRepository) CountOpenTransferDriverShifts(branchID, date string) (int, error) {
	query := `SELECT COUNT(*) FROM shifts
	          WHERE branch_id = $1 AND check_in::date <= $2::date AND role = 'driver' AND status = 'active'
	            AND (transfer_pending = TRUE OR transferred_to_shift_id IS NOT NULL)`
	var count int
	if err := r.db.QueryRow(query, branchID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open transfer driver shifts: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// CountActiveNonTransferShifts counts active shifts on the date excluding
// the transfer-state driver shifts counted separately.
func (r *shiftRepository) CountActiveNonTransferShifts(branchID, date string) (int, error) {
	query := `SELECT COUNT(*) FROM shifts
	          WHERE branch_id = $1 AND check_in::date <= $2::date AND status = 'active'
	            AND NOT (role = 'driver' AND (transfer_pending = TRUE OR transferred_to_shift_id IS NOT NULL))`
	var count int
	if err := r.db.QueryRow(query, branchID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting active shifts: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *shiftRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM shifts WHERE check_in::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging shifts: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
