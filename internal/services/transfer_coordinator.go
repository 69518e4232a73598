package services

import (
	"fmt"
	"sync"
	"time"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// TransferCoordinator implements the driver hand-off state machine. A
// driver's cash is decoupled from shift timing: when a cashier closes,
// their attached drivers become pending; the next cashier to open on the
// same branch/terminal claims them. Exactly one cashier is liable for a
// driver's outstanding cash at any instant.
type TransferCoordinator interface {
	// ReleaseDrivers moves every attached active driver shift on the
	// closing cashier's branch/terminal to the pending state and
	// subtracts their opening floats from the closing drawer.
	ReleaseDrivers(executor repositories.SQLExecutor, closingCashier *models.Shift, drawerID int64) ([]models.Shift, error)
	// ClaimPendingDrivers attaches every pending driver shift on the
	// branch/terminal to the newly opened cashier shift and adds their
	// opening floats to the new drawer.
	ClaimPendingDrivers(executor repositories.SQLExecutor, newCashier *models.Shift, drawerID int64) ([]models.Shift, error)
	// ActiveDrivers lists active driver shifts on the branch/terminal,
	// served from a short-lived cache.
	ActiveDrivers(branchID, terminalID string) ([]models.Shift, error)
}

// driverCache is the explicit cache object for the active-driver list.
// TTL comparison is done by the owner; there is no global map.
type driverCache struct {
	branchID   string
	terminalID string
	data       []models.Shift
	fetchedAt  time.Time
}

type transferCoordinator struct {
	shiftRepo   repositories.ShiftRepository
	earningRepo repositories.DriverEarningRepository
	ledger      DrawerLedger
	syncRepo    repositories.SyncRepository

	cacheTTL time.Duration
	mu       sync.Mutex
	cache    driverCache
}

// NewTransferCoordinator creates a new instance of TransferCoordinator.
func NewTransferCoordinator(
	sr repositories.ShiftRepository,
	er repositories.DriverEarningRepository,
	ledger DrawerLedger,
	syncRepo repositories.SyncRepository,
	cacheTTL time.Duration,
) TransferCoordinator {
	return &transferCoordinator{
		shiftRepo:   sr,
		earningRepo: er,
		ledger:      ledger,
		syncRepo:    syncRepo,
		cacheTTL:    cacheTTL,
	}
}

func (c *transferCoordinator) enqueueShiftSync(executor repositories.SQLExecutor, shift *models.Shift) {
	if err := c.syncRepo.Enqueue(executor, "shifts", shift.ID, models.SyncUpdate, shift); err != nil {
		utils.LogError(err, fmt.Sprintf("transfer coordinator: sync enqueue failed for shift %d", shift.ID))
	}
}

func (c *transferCoordinator) ReleaseDrivers(executor repositories.SQLExecutor, closingCashier *models.Shift, drawerID int64) ([]models.Shift, error) {
	drivers, err := c.shiftRepo.GetActiveDriverShifts(executor, closingCashier.BranchID, closingCashier.TerminalID)
	if err != nil {
		return nil, err
	}

	released := make([]models.Shift, 0, len(drivers))
	for i := range drivers {
		driver := &drivers[i]
		if err := c.shiftRepo.MarkTransferPending(executor, driver.ID); err != nil {
			return nil, fmt.Errorf("releasing driver shift %d: %w", driver.ID, err)
		}
		driver.TransferPendingFlag = true
		driver.TransferredToShiftID = nil

		// Earnings recorded so far belong to the outgoing cashier's
		// window; flag them so report attribution survives the hand-off.
		if _, err := c.earningRepo.MarkTransferredByShift(executor, driver.ID); err != nil {
			return nil, err
		}

		// The closing cashier stops being liable for the driver's float.
		if driver.OpeningAmount != 0 {
			if _, err := c.ledger.AddCashGiven(executor, drawerID, -driver.OpeningAmount); err != nil {
				return nil, err
			}
		}

		c.enqueueShiftSync(executor, driver)
		released = append(released, *driver)
	}

	c.invalidateCache()
	return released, nil
}

func (c *transferCoordinator) ClaimPendingDrivers(executor repositories.SQLExecutor, newCashier *models.Shift, drawerID int64) ([]models.Shift, error) {
	pending, err := c.shiftRepo.GetPendingTransferShifts(executor, newCashier.BranchID, newCashier.TerminalID)
	if err != nil {
		return nil, err
	}

	claimed := make([]models.Shift, 0, len(pending))
	for i := range pending {
		driver := &pending[i]
		if err := c.shiftRepo.ClaimTransfer(executor, driver.ID, newCashier.ID); err != nil {
			return nil, fmt.Errorf("claiming driver shift %d: %w", driver.ID, err)
		}
		driver.TransferPendingFlag = false
		cashierID := newCashier.ID
		driver.TransferredToShiftID = &cashierID

		// The incoming cashier assumes liability for the driver's float.
		if driver.OpeningAmount != 0 {
			if _, err := c.ledger.AddCashGiven(executor, drawerID, driver.OpeningAmount); err != nil {
				return nil, err
			}
		}

		c.enqueueShiftSync(executor, driver)
		claimed = append(claimed, *driver)
	}

	c.invalidateCache()
	return claimed, nil
}

func (c *transferCoordinator) ActiveDrivers(branchID, terminalID string) ([]models.Shift, error) {
	c.mu.Lock()
	if c.cache.data != nil &&
		c.cache.branchID == branchID && c.cache.terminalID == terminalID &&
		time.Since(c.cache.fetchedAt) < c.cacheTTL {
		data := c.cache.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	drivers, err := c.shiftRepo.GetActiveDriverShifts(nil, branchID, terminalID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache = driverCache{branchID: branchID, terminalID: terminalID, data: drivers, fetchedAt: time.Now()}
	c.mu.Unlock()
	return drivers, nil
}

func (c *transferCoordinator) invalidateCache() {
	c.mu.Lock()
	c.cache = driverCache{}
	c.mu.Unlock()
}
