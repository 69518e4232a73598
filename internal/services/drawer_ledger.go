package services

import (
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// Drawer ledger errors.
var (
	ErrDrawerNotFound      = errors.New("cash drawer session not found")
	ErrDrawerAlreadyClosed = errors.New("cash drawer session already closed")
)

// DrawerLedger exposes the incremental mutators of a cash drawer
// session. Every mutator is one atomic add-and-persist and enqueues the
// post-mutation snapshot on the outbound sync queue. No mutator
// recomputes variance; that happens once, at close.
type DrawerLedger interface {
	OpenSession(executor repositories.SQLExecutor, shift *models.Shift) (*models.CashDrawerSession, error)
	SessionByShift(executor repositories.SQLExecutor, shiftID int64) (*models.CashDrawerSession, error)
	ActiveSession(executor repositories.SQLExecutor, branchID, terminalID string) (*models.CashDrawerSession, error)
	AddCashGiven(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddCashReturned(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddExpense(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddStaffPayment(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddCashDrop(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	AddSale(executor repositories.SQLExecutor, sessionID int64, cashDelta, cardDelta float64) (*models.CashDrawerSession, error)
	AddRefund(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error)
	CloseSession(executor repositories.SQLExecutor, sessionID int64, closing, expected, variance float64, closedBy int64, notes *string) (*models.CashDrawerSession, error)
}

type drawerLedger struct {
	drawerRepo repositories.DrawerRepository
	syncRepo   repositories.SyncRepository
}

// NewDrawerLedger creates a new instance of DrawerLedger.
func NewDrawerLedger(dr repositories.DrawerRepository, sr repositories.SyncRepository) DrawerLedger {
	return &drawerLedger{drawerRepo: dr, syncRepo: sr}
}

// enqueueSync mirrors a drawer mutation on the outbound queue. Enqueue
// failures are logged, never propagated: local durability is the source
// of truth and remote convergence is retried independently.
func (l *drawerLedger) enqueueSync(executor repositories.SQLExecutor, op models.SyncOperation, session *models.CashDrawerSession) {
	if err := l.syncRepo.Enqueue(executor, "cash_drawer_sessions", session.ID, op, session); err != nil {
		utils.LogError(err, fmt.Sprintf("drawer ledger: sync enqueue failed for session %d", session.ID))
	}
}

func (l *drawerLedger) OpenSession(executor repositories.SQLExecutor, shift *models.Shift) (*models.CashDrawerSession, error) {
	session := &models.CashDrawerSession{
		ShiftID:       shift.ID,
		BranchID:      shift.BranchID,
		TerminalID:    shift.TerminalID,
		OpeningAmount: shift.OpeningAmount,
	}
	if err := l.drawerRepo.CreateSession(executor, session); err != nil {
		return nil, err
	}
	l.enqueueSync(executor, models.SyncInsert, session)
	return session, nil
}

func (l *drawerLedger) SessionByShift(executor repositories.SQLExecutor, shiftID int64) (*models.CashDrawerSession, error) {
	session, err := l.drawerRepo.GetByShiftID(executor, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDrawerNotFound
		}
		return nil, err
	}
	return session, nil
}

func (l *drawerLedger) ActiveSession(executor repositories.SQLExecutor, branchID, terminalID string) (*models.CashDrawerSession, error) {
	session, err := l.drawerRepo.GetActiveByTerminal(executor, branchID, terminalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDrawerNotFound
		}
		return nil, err
	}
	return session, nil
}

func (l *drawerLedger) mutate(executor repositories.SQLExecutor,
	apply func() (*models.CashDrawerSession, error)) (*models.CashDrawerSession, error) {
	session, err := apply()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDrawerNotFound
		}
		return nil, err
	}
	l.enqueueSync(executor, models.SyncUpdate, session)
	return session, nil
}

func (l *drawerLedger) AddCashGiven(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddCashGiven(executor, sessionID, delta)
	})
}

func (l *drawerLedger) AddCashReturned(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddCashReturned(executor, sessionID, delta)
	})
}

func (l *drawerLedger) AddExpense(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddExpense(executor, sessionID, delta)
	})
}

func (l *drawerLedger) AddStaffPayment(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddStaffPayment(executor, sessionID, delta)
	})
}

func (l *drawerLedger) AddCashDrop(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddCashDrop(executor, sessionID, delta)
	})
}

func (l *drawerLedger) AddSale(executor repositories.SQLExecutor, sessionID int64, cashDelta, cardDelta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddSale(executor, sessionID, cashDelta, cardDelta)
	})
}

func (l *drawerLedger) AddRefund(executor repositories.SQLExecutor, sessionID int64, delta float64) (*models.CashDrawerSession, error) {
	return l.mutate(executor, func() (*models.CashDrawerSession, error) {
		return l.drawerRepo.AddRefund(executor, sessionID, delta)
	})
}

func (l *drawerLedger) CloseSession(executor repositories.SQLExecutor, sessionID int64, closing, expected, variance float64, closedBy int64, notes *string) (*models.CashDrawerSession, error) {
	session, err := l.drawerRepo.CloseSession(executor, sessionID, closing, expected, variance, closedBy, notes, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDrawerAlreadyClosed
		}
		return nil, err
	}
	l.enqueueSync(executor, models.SyncUpdate, session)
	return session, nil
}
