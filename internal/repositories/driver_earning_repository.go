package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"
)

// DriverEarningRepository defines the interface for driver earning
// database operations.
type DriverEarningRepository interface {
	CreateEarning(executor SQLExecutor, earning *models.DriverEarning) error
	ListByShift(executor SQLExecutor, shiftID int64) ([]models.DriverEarning, error)
	SumCashCollectedByShift(executor SQLExecutor, shiftID int64) (float64, error)
	MarkTransferredByShift(executor SQLExecutor, shiftID int64) (int64, error)
	AggregateByDate(branchID, terminalID, date string) (*models.DriverEarningsSummary, error)
	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type driverEarningRepository struct {
	db *sql.DB
}

// NewDriverEarningRepository creates a new instance of DriverEarningRepository.
func NewDriverEarningRepository(db *sql.DB) DriverEarningRepository {
	return &driverEarningRepository{db: db}
}

const earningColumns = `id, shift_id, order_id, delivery_fee, tip_amount, cash_collected, card_amount, cash_to_return, transferred, created_at`

func scanEarningRow(row scanner) (*models.DriverEarning, error) {
	var e models.DriverEarning
	err := row.Scan(&e.ID, &e.ShiftID, &e.OrderID, &e.DeliveryFee, &e.TipAmount,
		&e.CashCollected, &e.CardAmount, &e.CashToReturn, &e.Transferred, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning driver earning: %v", ErrDatabaseError, err)
	}
	return &e, nil
}

func (r *driverEarningRepository) CreateEarning(executor SQLExecutor, earning *models.DriverEarning) error {
	query := `INSERT INTO driver_earnings
	            (shift_id, order_id, delivery_fee, tip_amount, cash_collected, card_amount, cash_to_return, transferred, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at`
	err := executor.QueryRow(query,
		earning.ShiftID, earning.OrderID, earning.DeliveryFee, earning.TipAmount,
		earning.CashCollected, earning.CardAmount, earning.CashToReturn, earning.Transferred, time.Now(),
	).Scan(&earning.ID, &earning.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: creating driver earning: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *driverEarningRepository) ListByShift(executor SQLExecutor, shiftID int64) ([]models.DriverEarning, error) {
	executor = fallback(executor, r.db)
	query := `SELECT ` + earningColumns + ` FROM driver_earnings WHERE shift_id = $1 ORDER BY created_at`
	rows, err := executor.Query(query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing driver earnings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	earnings := []models.DriverEarning{}
	for rows.Next() {
		e, err := scanEarningRow(rows)
		if err != nil {
			return nil, err
		}
		earnings = append(earnings, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating driver earnings: %v", ErrDatabaseError, err)
	}
	return earnings, nil
}

func (r *driverEarningRepository) SumCashCollectedByShift(executor SQLExecutor, shiftID int64) (float64, error) {
	executor = fallback(executor, r.db)
	query := `SELECT COALESCE(SUM(cash_collected), 0) FROM driver_earnings WHERE shift_id = $1`
	var sum float64
	if err := executor.QueryRow(query, shiftID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: summing cash collected for shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	return sum, nil
}

// MarkTransferredByShift flags every earning of the shift at the moment
// the shift enters the pending transfer state.
func (r *driverEarningRepository) MarkTransferredByShift(executor SQLExecutor, shiftID int64) (int64, error) {
	result, err := executor.Exec(`UPDATE driver_earnings SET transferred = TRUE WHERE shift_id = $1`, shiftID)
	if err != nil {
		return 0, fmt.Errorf("%w: marking earnings transferred for shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// AggregateByDate sums delivery money for the branch and date through
// the driver shift. An empty terminalID spans the whole branch.
func (r *driverEarningRepository) AggregateByDate(branchID, terminalID, date string) (*models.DriverEarningsSummary, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE o.status = 'cancelled'),
	                 COALESCE(SUM(e.delivery_fee), 0),
	                 COALESCE(SUM(e.tip_amount), 0),
	                 COALESCE(SUM(e.cash_collected), 0),
	                 COALESCE(SUM(e.card_amount), 0)
	          FROM driver_earnings e
	          JOIN shifts s ON s.id = e.shift_id
	          LEFT JOIN orders o ON o.id = e.order_id
	          WHERE s.branch_id = $1 AND e.created_at::date = $2::date`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		query += ` AND s.terminal_id = $3`
		args = append(args, terminalID)
	}
	var summary models.DriverEarningsSummary
	err := r.db.QueryRow(query, args...).Scan(
		&summary.Deliveries, &summary.CancelledDeliveries,
		&summary.DeliveryFees, &summary.Tips, &summary.CashCollected, &summary.CardAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating driver earnings: %v", ErrDatabaseError, err)
	}
	return &summary, nil
}

func (r *driverEarningRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM driver_earnings WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging driver earnings: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
