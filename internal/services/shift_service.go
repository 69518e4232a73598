package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// Shift registry errors.
var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrShiftAlreadyActive = errors.New("staff member already has an active shift")
	ErrShiftAlreadyClosed = errors.New("shift is already closed")
	ErrNoActiveCashier    = errors.New("no active cashier shift on this terminal")
	ErrStaffNotFound      = errors.New("staff member not found")
	ErrShiftValidation    = errors.New("shift validation failed")
)

// ShiftService is the registry of working periods. Opening and closing a
// shift are single transactions that also drive the drawer ledger and the
// driver transfer coordinator.
type ShiftService interface {
	OpenShift(shift *models.Shift) (*models.Shift, error)
	CloseShift(shiftID int64, closingAmount float64, closedBy int64, notes *string, paymentAmount *float64) (*models.Shift, error)
	GetShiftByID(shiftID int64) (*models.Shift, error)
	GetActiveShift(staffID int64) (*models.Shift, error)
	GetShiftSummary(shiftID int64) (*models.ShiftSummary, error)
	GetShifts(branchID, terminalID, date string, role *models.StaffRole) ([]models.Shift, error)
	GetActiveDrivers(branchID, terminalID string) ([]models.Shift, error)
	RecordDriverEarning(earning *models.DriverEarning) (*models.DriverEarning, error)
	RecordCashDrop(shiftID int64, amount float64) (*models.CashDrawerSession, error)
}

type shiftService struct {
	db          *sql.DB
	shiftRepo   repositories.ShiftRepository
	expenseRepo repositories.ExpenseRepository
	earningRepo repositories.DriverEarningRepository
	orderRepo   repositories.OrderRepository
	ledger      DrawerLedger
	transfer    TransferCoordinator
	syncRepo    repositories.SyncRepository
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(
	db *sql.DB,
	sr repositories.ShiftRepository,
	er repositories.ExpenseRepository,
	der repositories.DriverEarningRepository,
	or repositories.OrderRepository,
	ledger DrawerLedger,
	transfer TransferCoordinator,
	syncRepo repositories.SyncRepository,
) ShiftService {
	return &shiftService{
		db:          db,
		shiftRepo:   sr,
		expenseRepo: er,
		earningRepo: der,
		orderRepo:   or,
		ledger:      ledger,
		transfer:    transfer,
		syncRepo:    syncRepo,
	}
}

func (s *shiftService) enqueueShiftSync(executor repositories.SQLExecutor, op models.SyncOperation, shift *models.Shift) {
	if err := s.syncRepo.Enqueue(executor, "shifts", shift.ID, op, shift); err != nil {
		utils.LogError(err, fmt.Sprintf("shift service: sync enqueue failed for shift %d", shift.ID))
	}
}

// OpenShift registers a new working period. Cashiers and managers get a
// drawer session and inherit any pending driver transfers; drivers with
// an opening float draw it from the active cashier's drawer.
func (s *shiftService) OpenShift(shift *models.Shift) (*models.Shift, error) {
	if shift.OpeningAmount < 0 {
		return nil, fmt.Errorf("%w: opening amount must not be negative", ErrShiftValidation)
	}
	if !shift.Role.HasDrawer() && shift.Role != models.RoleDriver && shift.OpeningAmount != 0 {
		return nil, fmt.Errorf("%w: role %s does not carry cash", ErrShiftValidation, shift.Role)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for opening shift: %w", err)
	}
	defer tx.Rollback()

	staffName, err := s.shiftRepo.GetStaffName(tx, shift.StaffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	shift.StaffName = staffName

	if _, err := s.shiftRepo.GetActiveShiftByStaff(tx, shift.StaffID); err == nil {
		return nil, ErrShiftAlreadyActive
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	shift.Status = models.ShiftActive
	shift.CheckIn = time.Now()

	if shift.Role.HasDrawer() {
		// Day-start status is decided once, at creation, and never
		// recomputed even if the first shift is later abandoned.
		count, err := s.shiftRepo.CountCashierShiftsOnDate(tx, shift.BranchID, shift.TerminalID, shift.CheckIn.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		shift.IsDayStart = count == 0
	}

	if err := s.shiftRepo.CreateShift(tx, shift); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrShiftAlreadyActive
		}
		return nil, err
	}

	switch {
	case shift.Role.HasDrawer():
		drawer, err := s.ledger.OpenSession(tx, shift)
		if err != nil {
			return nil, err
		}
		if _, err := s.transfer.ClaimPendingDrivers(tx, shift, drawer.ID); err != nil {
			return nil, err
		}
	case shift.Role == models.RoleDriver && shift.OpeningAmount > 0:
		drawer, err := s.ledger.ActiveSession(tx, shift.BranchID, shift.TerminalID)
		if err != nil {
			if errors.Is(err, ErrDrawerNotFound) {
				return nil, ErrNoActiveCashier
			}
			return nil, err
		}
		if _, err := s.ledger.AddCashGiven(tx, drawer.ID, shift.OpeningAmount); err != nil {
			return nil, err
		}
	}

	s.enqueueShiftSync(tx, models.SyncInsert, shift)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit opening shift: %w", err)
	}
	return shift, nil
}

// CloseShift ends a working period. The close path depends on the role:
// cashiers reconcile their drawer, drivers settle their cash with the
// active cashier, everyone else just gets a check-out stamp. closedBy is
// the staff member performing the close; on drawer roles it lands in the
// drawer's reconciliation trail.
func (s *shiftService) CloseShift(shiftID int64, closingAmount float64, closedBy int64, notes *string, paymentAmount *float64) (*models.Shift, error) {
	if closingAmount < 0 {
		return nil, fmt.Errorf("%w: closing amount must not be negative", ErrShiftValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for closing shift: %w", err)
	}
	defer tx.Rollback()

	shift, err := s.shiftRepo.GetShiftByIDForUpdate(tx, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if !shift.IsActive() {
		return nil, ErrShiftAlreadyClosed
	}

	now := time.Now()
	var result VarianceResult

	switch {
	case shift.Role.HasDrawer():
		result, err = s.closeCashier(tx, shift, closingAmount, closedBy, notes, now)
	case shift.Role == models.RoleDriver:
		result, err = s.closeDriver(tx, shift, closingAmount, paymentAmount, now)
	default:
		result = VarianceResult{}
		err = s.shiftRepo.CloseShift(tx, shift.ID, 0, 0, 0, paymentAmount, now)
	}
	if err != nil {
		return nil, err
	}

	shift.Status = models.ShiftClosed
	shift.CheckOut = &now
	shift.ClosingAmount = &closingAmount
	shift.ExpectedAmount = &result.Expected
	shift.Variance = &result.Variance
	shift.PaymentAmount = paymentAmount

	s.enqueueShiftSync(tx, models.SyncUpdate, shift)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit closing shift: %w", err)
	}
	return shift, nil
}

// closeCashier hands off attached drivers, recomputes the expected
// drawer cash from scratch and stamps the drawer and shift rows.
func (s *shiftService) closeCashier(tx repositories.SQLExecutor, shift *models.Shift, closingAmount float64, closedBy int64, notes *string, now time.Time) (VarianceResult, error) {
	drawer, err := s.ledger.SessionByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}
	if drawer.IsClosed() {
		return VarianceResult{}, ErrShiftAlreadyClosed
	}

	if _, err := s.transfer.ReleaseDrivers(tx, shift, drawer.ID); err != nil {
		return VarianceResult{}, err
	}
	// Re-read: releasing drivers adjusts driver_cash_given on this row.
	drawer, err = s.ledger.SessionByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}

	cashSales, cashRefunds, err := s.orderRepo.CashTakingsByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}
	cardSales, err := s.orderRepo.CardSalesByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}
	approvedExpenses, err := s.expenseRepo.SumApprovedByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}

	// Freeze the order-derived figures onto the drawer row before it
	// closes; the running totals may lag the orders table.
	if _, err := s.ledger.AddSale(tx, drawer.ID, cashSales-drawer.CashSales, cardSales-drawer.CardSales); err != nil {
		return VarianceResult{}, err
	}
	if _, err := s.ledger.AddRefund(tx, drawer.ID, cashRefunds-drawer.CashRefunds); err != nil {
		return VarianceResult{}, err
	}

	expected := CashierExpected(CashierCloseInputs{
		Opening:            drawer.OpeningAmount,
		CashSales:          cashSales,
		CashRefunds:        cashRefunds,
		ApprovedExpenses:   approvedExpenses,
		CashDrops:          drawer.TotalDrops,
		DriverCashGiven:    drawer.DriverCashGiven,
		DriverCashReturned: drawer.DriverCashReturned,
		StaffPayments:      drawer.TotalStaffPayments,
	})
	result := ComputeVariance(expected, closingAmount)

	if _, err := s.ledger.CloseSession(tx, drawer.ID, closingAmount, expected, result.Variance, closedBy, notes); err != nil {
		return VarianceResult{}, err
	}
	if err := s.shiftRepo.CloseShift(tx, shift.ID, closingAmount, expected, result.Variance, nil, now); err != nil {
		return VarianceResult{}, err
	}
	return result, nil
}

// closeDriver settles a driver against what they were expected to bring
// back. The expected return, clamped by nothing, is credited to the
// governing cashier's drawer; any shortage or overage stays on the
// driver's shift record.
func (s *shiftService) closeDriver(tx repositories.SQLExecutor, shift *models.Shift, closingAmount float64, paymentAmount *float64, now time.Time) (VarianceResult, error) {
	cashCollected, err := s.earningRepo.SumCashCollectedByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}
	approvedExpenses, err := s.expenseRepo.SumApprovedByShift(tx, shift.ID)
	if err != nil {
		return VarianceResult{}, err
	}

	var pay float64
	if paymentAmount != nil {
		pay = *paymentAmount
	}
	expectedReturn := DriverExpectedReturn(DriverCloseInputs{
		CashCollected:    cashCollected,
		OpeningAmount:    shift.OpeningAmount,
		ApprovedExpenses: approvedExpenses,
		PaymentAmount:    pay,
	})
	result := ComputeVariance(expectedReturn, closingAmount)

	if err := s.shiftRepo.CloseShift(tx, shift.ID, closingAmount, expectedReturn, result.Variance, paymentAmount, now); err != nil {
		return VarianceResult{}, err
	}

	drawer, err := s.ledger.ActiveSession(tx, shift.BranchID, shift.TerminalID)
	if err != nil {
		if errors.Is(err, ErrDrawerNotFound) {
			// A driver can legitimately close after every cashier has
			// left (pending transfer state). The settlement then waits
			// for end-of-day review instead of hitting a drawer.
			utils.LogInfo(fmt.Sprintf("driver shift %d closed with no active cashier drawer on %s/%s",
				shift.ID, shift.BranchID, shift.TerminalID))
			return result, nil
		}
		return VarianceResult{}, err
	}

	if _, err := s.ledger.AddCashReturned(tx, drawer.ID, expectedReturn); err != nil {
		return VarianceResult{}, err
	}
	if pay != 0 {
		// The driver's wage is paid out of the cashier's drawer and
		// booked as a staff payment, not an expense.
		if _, err := s.ledger.AddStaffPayment(tx, drawer.ID, pay); err != nil {
			return VarianceResult{}, err
		}
		payment := &models.StaffPayment{
			CashierShiftID: drawer.ShiftID,
			StaffShiftID:   &shift.ID,
			PaidToStaffID:  shift.StaffID,
			Amount:         pay,
			PaymentType:    models.PaymentWage,
		}
		if err := s.expenseRepo.CreateStaffPayment(tx, payment); err != nil {
			return VarianceResult{}, err
		}
	}
	return result, nil
}

func (s *shiftService) GetShiftByID(shiftID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(nil, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

// GetActiveShift returns the staff member's open shift, falling back to
// their most recent one so a terminal can show "last shift" state after
// a close.
func (s *shiftService) GetActiveShift(staffID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetMostRecentShiftForStaff(nil, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

// GetShiftSummary joins a shift with its drawer, expenses, earnings and
// staff payments.
func (s *shiftService) GetShiftSummary(shiftID int64) (*models.ShiftSummary, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	summary := &models.ShiftSummary{Shift: *shift}

	if shift.Role.HasDrawer() {
		drawer, err := s.ledger.SessionByShift(nil, shift.ID)
		if err != nil && !errors.Is(err, ErrDrawerNotFound) {
			return nil, err
		}
		summary.Drawer = drawer

		payments, err := s.expenseRepo.ListStaffPaymentsByCashierShift(nil, shift.ID)
		if err != nil {
			return nil, err
		}
		summary.StaffPayments = payments
	}

	expenses, err := s.expenseRepo.ListExpensesByShift(nil, shift.ID)
	if err != nil {
		return nil, err
	}
	summary.Expenses = expenses

	if shift.Role == models.RoleDriver {
		earnings, err := s.earningRepo.ListByShift(nil, shift.ID)
		if err != nil {
			return nil, err
		}
		summary.Earnings = earnings
	}
	return summary, nil
}

func (s *shiftService) GetShifts(branchID, terminalID, date string, role *models.StaffRole) ([]models.Shift, error) {
	return s.shiftRepo.GetShiftsByDate(branchID, terminalID, date, role)
}

func (s *shiftService) GetActiveDrivers(branchID, terminalID string) ([]models.Shift, error) {
	return s.transfer.ActiveDrivers(branchID, terminalID)
}

// RecordDriverEarning books one delivery's money against an active
// driver shift. Earnings recorded after a hand-off started are flagged
// transferred up front so daily attribution stays stable.
func (s *shiftService) RecordDriverEarning(earning *models.DriverEarning) (*models.DriverEarning, error) {
	if earning.CashCollected < 0 || earning.CardAmount < 0 {
		return nil, fmt.Errorf("%w: collected amounts must not be negative", ErrShiftValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for driver earning: %w", err)
	}
	defer tx.Rollback()

	shift, err := s.shiftRepo.GetShiftByIDForUpdate(tx, earning.ShiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if shift.Role != models.RoleDriver {
		return nil, fmt.Errorf("%w: shift %d is not a driver shift", ErrShiftValidation, shift.ID)
	}
	if !shift.IsActive() {
		return nil, ErrShiftAlreadyClosed
	}

	earning.CashToReturn = earning.CashCollected - earning.CardAmount
	earning.Transferred = shift.TransferPendingFlag || shift.TransferredToShiftID != nil

	if err := s.earningRepo.CreateEarning(tx, earning); err != nil {
		return nil, err
	}
	if err := s.syncRepo.Enqueue(tx, "driver_earnings", earning.ID, models.SyncInsert, earning); err != nil {
		utils.LogError(err, fmt.Sprintf("shift service: sync enqueue failed for earning %d", earning.ID))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit driver earning: %w", err)
	}
	return earning, nil
}

// RecordCashDrop moves cash out of a drawer into the safe.
func (s *shiftService) RecordCashDrop(shiftID int64, amount float64) (*models.CashDrawerSession, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: drop amount must be positive", ErrShiftValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for cash drop: %w", err)
	}
	defer tx.Rollback()

	shift, err := s.shiftRepo.GetShiftByIDForUpdate(tx, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if !shift.IsActive() {
		return nil, ErrShiftAlreadyClosed
	}
	if !shift.Role.HasDrawer() {
		return nil, fmt.Errorf("%w: shift %d has no drawer", ErrShiftValidation, shiftID)
	}

	drawer, err := s.ledger.SessionByShift(tx, shift.ID)
	if err != nil {
		return nil, err
	}
	drawer, err = s.ledger.AddCashDrop(tx, drawer.ID, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cash drop: %w", err)
	}
	return drawer, nil
}
