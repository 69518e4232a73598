package services

import (
	"database/sql"
	"errors"
	"fmt"

	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// ErrDayNotFinalized is returned when a finalize attempt fails a
// precondition; the blocking reason travels in the FinalizeCheck.
var ErrDayNotFinalized = errors.New("day cannot be finalized")

// Finalize gate codes, most specific first.
const (
	GateDriverTransferOpen = "DRIVER_TRANSFER_OPEN"
	GateActiveShifts       = "ACTIVE_SHIFTS"
	GateDrawerOpen         = "DRAWER_OPEN"
	GateOpenOrders         = "OPEN_ORDERS"
)

// FinalizeCheck is the result of the end-of-day precondition pass. When
// OK is false, Code names the first gate that failed.
type FinalizeCheck struct {
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// FinalizeResult reports what an irreversible purge removed.
type FinalizeResult struct {
	Date           string `json:"date"`
	BranchID       string `json:"branch_id"`
	PurgedOrders   int64  `json:"purged_orders"`
	PurgedShifts   int64  `json:"purged_shifts"`
	PurgedDrawers  int64  `json:"purged_drawers"`
	PurgedExpenses int64  `json:"purged_expenses"`
	PurgedEarnings int64  `json:"purged_earnings"`
	PurgedSessions int64  `json:"purged_sessions"`
	PurgedSyncRows int64  `json:"purged_sync_rows"`
	TablesReset    int64  `json:"tables_reset"`
}

// EODService is the end-of-day finalizer: ordered precondition gates and
// the single destructive operation in the system.
type EODService interface {
	CanFinalize(branchID, date string) (*FinalizeCheck, error)
	FinalizeDay(branchID, date string) (*FinalizeResult, error)
}

type eodService struct {
	db          *sql.DB
	shiftRepo   repositories.ShiftRepository
	drawerRepo  repositories.DrawerRepository
	expenseRepo repositories.ExpenseRepository
	earningRepo repositories.DriverEarningRepository
	orderRepo   repositories.OrderRepository
	tableRepo   repositories.TableRepository
	syncRepo    repositories.SyncRepository
}

// NewEODService creates a new instance of EODService.
func NewEODService(
	db *sql.DB,
	sr repositories.ShiftRepository,
	dr repositories.DrawerRepository,
	er repositories.ExpenseRepository,
	der repositories.DriverEarningRepository,
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	syncRepo repositories.SyncRepository,
) EODService {
	return &eodService{
		db:          db,
		shiftRepo:   sr,
		drawerRepo:  dr,
		expenseRepo: er,
		earningRepo: der,
		orderRepo:   or,
		tableRepo:   tr,
		syncRepo:    syncRepo,
	}
}

// CanFinalize runs the precondition gates in order and reports the first
// failure. The order matters: a stuck driver transfer is more actionable
// than a generic "shifts still open".
func (s *eodService) CanFinalize(branchID, date string) (*FinalizeCheck, error) {
	transfers, err := s.shiftRepo.CountOpenTransferDriverShifts(branchID, date)
	if err != nil {
		return nil, err
	}
	if transfers > 0 {
		return &FinalizeCheck{
			Code:   GateDriverTransferOpen,
			Reason: fmt.Sprintf("%d driver shift(s) in an open transfer state must be closed first", transfers),
		}, nil
	}

	active, err := s.shiftRepo.CountActiveNonTransferShifts(branchID, date)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return &FinalizeCheck{
			Code:   GateActiveShifts,
			Reason: fmt.Sprintf("%d shift(s) still active", active),
		}, nil
	}

	unclosed, err := s.drawerRepo.CountUnclosedForDate(branchID, date)
	if err != nil {
		return nil, err
	}
	if unclosed > 0 {
		return &FinalizeCheck{
			Code:   GateDrawerOpen,
			Reason: fmt.Sprintf("%d cash drawer session(s) not closed", unclosed),
		}, nil
	}

	openOrders, err := s.orderRepo.CountOpenOrdersForDate(branchID, date)
	if err != nil {
		return nil, err
	}
	if openOrders > 0 {
		return &FinalizeCheck{
			Code:   GateOpenOrders,
			Reason: fmt.Sprintf("%d order(s) not in a terminal status", openOrders),
		}, nil
	}

	return &FinalizeCheck{OK: true}, nil
}

// FinalizeDay purges every operational record dated on or before the
// target date and resets table state. The gates are re-checked inside
// the same call so a shift opened between check and finalize still
// blocks. The purge is one transaction: all or nothing.
func (s *eodService) FinalizeDay(branchID, date string) (*FinalizeResult, error) {
	check, err := s.CanFinalize(branchID, date)
	if err != nil {
		return nil, err
	}
	if !check.OK {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFinalized, check.Reason)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for end of day: %w", err)
	}
	defer tx.Rollback()

	result := &FinalizeResult{Date: date, BranchID: branchID}

	// Children before parents: earnings and payments reference shifts
	// and orders, sessions reference orders, drawers and orders
	// reference shifts.
	if result.PurgedEarnings, err = s.earningRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedExpenses, err = s.expenseRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedSessions, err = s.tableRepo.PurgeSessionsThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedDrawers, err = s.drawerRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedOrders, err = s.orderRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedShifts, err = s.shiftRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.PurgedSyncRows, err = s.syncRepo.PurgeThrough(tx, date); err != nil {
		return nil, err
	}
	if result.TablesReset, err = s.tableRepo.ResetTables(tx, branchID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit end of day: %w", err)
	}

	utils.LogInfo(fmt.Sprintf("end of day finalized for branch %s through %s: %d shifts, %d orders purged",
		branchID, date, result.PurgedShifts, result.PurgedOrders))
	return result, nil
}
