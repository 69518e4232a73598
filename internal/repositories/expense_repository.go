package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"
)

// ExpenseRepository defines the interface for expense and staff payment
// database operations.
type ExpenseRepository interface {
	CreateExpense(executor SQLExecutor, expense *models.Expense) error
	GetExpenseByID(executor SQLExecutor, id int64) (*models.Expense, error)
	UpdateExpenseStatus(executor SQLExecutor, id int64, from, to models.ExpenseStatus) error
	ListExpensesByShift(executor SQLExecutor, shiftID int64) ([]models.Expense, error)
	ListExpensesByDate(branchID, terminalID, date string) ([]models.Expense, error)
	SumApprovedByShift(executor SQLExecutor, shiftID int64) (float64, error)

	CreateStaffPayment(executor SQLExecutor, payment *models.StaffPayment) error
	ListStaffPaymentsByCashierShift(executor SQLExecutor, cashierShiftID int64) ([]models.StaffPayment, error)
	SumStaffPaymentsByDate(branchID, terminalID, date string) (float64, error)

	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type expenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new instance of ExpenseRepository.
func NewExpenseRepository(db *sql.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, shift_id, expense_type, amount, description, status, created_at, updated_at`

func scanExpenseRow(row scanner) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.ShiftID, &e.ExpenseType, &e.Amount, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning expense: %v", ErrDatabaseError, err)
	}
	return &e, nil
}

func collectExpenseRows(rows *sql.Rows) ([]models.Expense, error) {
	defer rows.Close()
	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpenseRow(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expenses: %v", ErrDatabaseError, err)
	}
	return expenses, nil
}

func (r *expenseRepository) CreateExpense(executor SQLExecutor, expense *models.Expense) error {
	query := `INSERT INTO expenses (shift_id, expense_type, amount, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		expense.ShiftID, expense.ExpenseType, expense.Amount, expense.Description,
		expense.Status, currentTime, currentTime,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: creating expense: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *expenseRepository) GetExpenseByID(executor SQLExecutor, id int64) (*models.Expense, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	return scanExpenseRow(executor.QueryRow(query, id))
}

// UpdateExpenseStatus transitions an expense only out of the expected
// prior status; a zero row count means the record moved underneath us.
func (r *expenseRepository) UpdateExpenseStatus(executor SQLExecutor, id int64, from, to models.ExpenseStatus) error {
	query := `UPDATE expenses SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := executor.Exec(query, id, from, to, time.Now())
	if err != nil {
		return fmt.Errorf("%w: updating expense %d status: %v", ErrDatabaseError, id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *expenseRepository) ListExpensesByShift(executor SQLExecutor, shiftID int64) ([]models.Expense, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE shift_id = $1 ORDER BY created_at`
	rows, err := executor.Query(query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing expenses by shift: %v", ErrDatabaseError, err)
	}
	return collectExpenseRows(rows)
}

// ListExpensesByDate lists a branch's expenses for a date, reaching the
// terminal through the owning shift. An empty terminalID spans the
// whole branch.
func (r *expenseRepository) ListExpensesByDate(branchID, terminalID, date string) ([]models.Expense, error) {
	query := `SELECT e.id, e.shift_id, e.expense_type, e.amount, e.description, e.status, e.created_at, e.updated_at
	          FROM expenses e
	          JOIN shifts s ON s.id = e.shift_id
	          WHERE s.branch_id = $1 AND e.created_at::date = $2::date`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		query += ` AND s.terminal_id = $3`
		args = append(args, terminalID)
	}
	query += ` ORDER BY e.created_at`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing expenses by date: %v", ErrDatabaseError, err)
	}
	return collectExpenseRows(rows)
}

func (r *expenseRepository) SumApprovedByShift(executor SQLExecutor, shiftID int64) (float64, error) {
	executor = fallback(executor, r.db)
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE shift_id = $1 AND status = 'approved'`
	var sum float64
	if err := executor.QueryRow(query, shiftID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: summing approved expenses for shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	return sum, nil
}

func (r *expenseRepository) CreateStaffPayment(executor SQLExecutor, payment *models.StaffPayment) error {
	query := `INSERT INTO staff_payments
	            (cashier_shift_id, staff_shift_id, paid_to_staff_id, amount, payment_type, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := executor.QueryRow(query,
		payment.CashierShiftID, payment.StaffShiftID, payment.PaidToStaffID,
		payment.Amount, payment.PaymentType, payment.Notes, time.Now(),
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: creating staff payment: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *expenseRepository) ListStaffPaymentsByCashierShift(executor SQLExecutor, cashierShiftID int64) ([]models.StaffPayment, error) {
	executor = fallback(executor, r.db)
	query := `SELECT id, cashier_shift_id, staff_shift_id, paid_to_staff_id, amount, payment_type, notes, created_at
	          FROM staff_payments
	          WHERE cashier_shift_id = $1
	          ORDER BY created_at`
	rows, err := executor.Query(query, cashierShiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing staff payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	payments := []models.StaffPayment{}
	for rows.Next() {
		var p models.StaffPayment
		if err := rows.Scan(&p.ID, &p.CashierShiftID, &p.StaffShiftID, &p.PaidToStaffID, &p.Amount, &p.PaymentType, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning staff payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

// SumStaffPaymentsByDate totals the branch's staff payments for a date
// through the paying cashier shift. An empty terminalID spans the whole
// branch.
func (r *expenseRepository) SumStaffPaymentsByDate(branchID, terminalID, date string) (float64, error) {
	query := `SELECT COALESCE(SUM(p.amount), 0)
	          FROM staff_payments p
	          JOIN shifts s ON s.id = p.cashier_shift_id
	          WHERE s.branch_id = $1 AND p.created_at::date = $2::date`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		query += ` AND s.terminal_id = $3`
		args = append(args, terminalID)
	}
	var sum float64
	if err := r.db.QueryRow(query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: summing staff payments by date: %v", ErrDatabaseError, err)
	}
	return sum, nil
}

func (r *expenseRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	var total int64
	result, err := executor.Exec(`DELETE FROM staff_payments WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging staff payments: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	total += n
	result, err = executor.Exec(`DELETE FROM expenses WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return total, fmt.Errorf("%w: purging expenses: %v", ErrDatabaseError, err)
	}
	n, _ = result.RowsAffected()
	total += n
	return total, nil
}
