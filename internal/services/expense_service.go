package services

import (
	"database/sql"
	"errors"
	"fmt"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// Expense ledger errors.
var (
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrExpenseStatusConflict = errors.New("expense is not in a state that allows this transition")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrCashierNotActive      = errors.New("no active cashier drawer for this terminal")
)

// ExpenseService is the ledger of cash outflows: operational expenses
// tied to a shift, and direct staff payments out of a cashier's drawer.
type ExpenseService interface {
	RecordExpense(expense *models.Expense) (*models.Expense, error)
	ApproveExpense(expenseID int64) (*models.Expense, error)
	RejectExpense(expenseID int64) (*models.Expense, error)
	GetExpenseByID(expenseID int64) (*models.Expense, error)
	ListExpensesByShift(shiftID int64) ([]models.Expense, error)
	ListExpensesByDate(branchID, terminalID, date string) ([]models.Expense, error)
	RecordStaffPayment(branchID, terminalID string, payment *models.StaffPayment) (*models.StaffPayment, error)
	ListStaffPayments(cashierShiftID int64) ([]models.StaffPayment, error)
}

type expenseService struct {
	db          *sql.DB
	expenseRepo repositories.ExpenseRepository
	shiftRepo   repositories.ShiftRepository
	ledger      DrawerLedger
	syncRepo    repositories.SyncRepository
}

// NewExpenseService creates a new instance of ExpenseService.
func NewExpenseService(
	db *sql.DB,
	er repositories.ExpenseRepository,
	sr repositories.ShiftRepository,
	ledger DrawerLedger,
	syncRepo repositories.SyncRepository,
) ExpenseService {
	return &expenseService{db: db, expenseRepo: er, shiftRepo: sr, ledger: ledger, syncRepo: syncRepo}
}

func (s *expenseService) enqueueSync(executor repositories.SQLExecutor, table string, id int64, op models.SyncOperation, payload interface{}) {
	if err := s.syncRepo.Enqueue(executor, table, id, op, payload); err != nil {
		utils.LogError(err, fmt.Sprintf("expense service: sync enqueue failed for %s %d", table, id))
	}
}

// RecordExpense books an expense against an active shift. Expenses are
// approved by default and immediately feed the owning drawer's running
// expense total; callers that want a manager sign-off first can submit
// the expense as pending, which keeps the drawer untouched until
// ApproveExpense.
func (s *expenseService) RecordExpense(expense *models.Expense) (*models.Expense, error) {
	if expense.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch expense.Status {
	case "":
		expense.Status = models.ExpenseApproved
	case models.ExpenseApproved, models.ExpensePending:
	default:
		return nil, ErrExpenseStatusConflict
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for expense: %w", err)
	}
	defer tx.Rollback()

	shift, err := s.shiftRepo.GetShiftByIDForUpdate(tx, expense.ShiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if !shift.IsActive() {
		return nil, ErrShiftAlreadyClosed
	}

	if err := s.expenseRepo.CreateExpense(tx, expense); err != nil {
		return nil, err
	}
	if expense.Status == models.ExpenseApproved {
		if err := s.applyExpenseToDrawer(tx, shift, expense.Amount); err != nil {
			return nil, err
		}
	}
	s.enqueueSync(tx, "expenses", expense.ID, models.SyncInsert, expense)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense: %w", err)
	}
	return expense, nil
}

// applyExpenseToDrawer adds an approved amount to the shift's drawer, if
// the role carries one and the session is still open. Driver expenses
// have no drawer; they meet the money only in the close-time variance
// formula.
func (s *expenseService) applyExpenseToDrawer(executor repositories.SQLExecutor, shift *models.Shift, amount float64) error {
	if !shift.Role.HasDrawer() {
		return nil
	}
	drawer, err := s.ledger.SessionByShift(executor, shift.ID)
	if err != nil {
		return err
	}
	if drawer.IsClosed() {
		return nil
	}
	_, err = s.ledger.AddExpense(executor, drawer.ID, amount)
	return err
}

// ApproveExpense moves a pending expense to approved and, when the
// owning shift carries a drawer, adds the amount to that drawer's
// running expense total. Driver expenses have no drawer; they meet the
// money only in the close-time variance formula.
func (s *expenseService) ApproveExpense(expenseID int64) (*models.Expense, error) {
	return s.resolveExpense(expenseID, models.ExpenseApproved)
}

// RejectExpense moves a pending expense to rejected. Rejected expenses
// never touch a drawer.
func (s *expenseService) RejectExpense(expenseID int64) (*models.Expense, error) {
	return s.resolveExpense(expenseID, models.ExpenseRejected)
}

func (s *expenseService) resolveExpense(expenseID int64, to models.ExpenseStatus) (*models.Expense, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for expense resolution: %w", err)
	}
	defer tx.Rollback()

	expense, err := s.expenseRepo.GetExpenseByID(tx, expenseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	if expense.Status != models.ExpensePending {
		return nil, ErrExpenseStatusConflict
	}

	if err := s.expenseRepo.UpdateExpenseStatus(tx, expenseID, models.ExpensePending, to); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseStatusConflict
		}
		return nil, err
	}
	expense.Status = to

	if to == models.ExpenseApproved {
		shift, err := s.shiftRepo.GetShiftByID(tx, expense.ShiftID)
		if err != nil {
			return nil, err
		}
		if err := s.applyExpenseToDrawer(tx, shift, expense.Amount); err != nil {
			return nil, err
		}
	}

	s.enqueueSync(tx, "expenses", expense.ID, models.SyncUpdate, expense)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense resolution: %w", err)
	}
	return expense, nil
}

func (s *expenseService) GetExpenseByID(expenseID int64) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetExpenseByID(nil, expenseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) ListExpensesByShift(shiftID int64) ([]models.Expense, error) {
	return s.expenseRepo.ListExpensesByShift(nil, shiftID)
}

func (s *expenseService) ListExpensesByDate(branchID, terminalID, date string) ([]models.Expense, error) {
	return s.expenseRepo.ListExpensesByDate(branchID, terminalID, date)
}

// RecordStaffPayment pays a staff member directly out of the terminal's
// active cashier drawer. The recipient's own shift is attached when they
// have one open; an off-shift payment is accepted and logged rather than
// rejected, since wages are routinely paid after check-out.
func (s *expenseService) RecordStaffPayment(branchID, terminalID string, payment *models.StaffPayment) (*models.StaffPayment, error) {
	if payment.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for staff payment: %w", err)
	}
	defer tx.Rollback()

	drawer, err := s.ledger.ActiveSession(tx, branchID, terminalID)
	if err != nil {
		if errors.Is(err, ErrDrawerNotFound) {
			return nil, ErrCashierNotActive
		}
		return nil, err
	}
	payment.CashierShiftID = drawer.ShiftID

	staffShift, err := s.shiftRepo.GetActiveShiftByStaff(tx, payment.PaidToStaffID)
	switch {
	case err == nil:
		payment.StaffShiftID = &staffShift.ID
	case errors.Is(err, repositories.ErrNotFound):
		payment.StaffShiftID = nil
		utils.LogInfo(fmt.Sprintf("staff payment to staff %d recorded off-shift", payment.PaidToStaffID))
	default:
		return nil, err
	}

	if err := s.expenseRepo.CreateStaffPayment(tx, payment); err != nil {
		return nil, err
	}
	if _, err := s.ledger.AddStaffPayment(tx, drawer.ID, payment.Amount); err != nil {
		return nil, err
	}
	s.enqueueSync(tx, "staff_payments", payment.ID, models.SyncInsert, payment)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit staff payment: %w", err)
	}
	return payment, nil
}

func (s *expenseService) ListStaffPayments(cashierShiftID int64) ([]models.StaffPayment, error) {
	return s.expenseRepo.ListStaffPaymentsByCashierShift(nil, cashierShiftID)
}
