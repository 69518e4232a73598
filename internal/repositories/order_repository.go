package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"pos_terminal_backend/internal/models"
)

// OrderRepository is the read-side projection of orders this service
// needs: report aggregation, the end-of-day gate, per-shift cash takings
// and the purge. The order flow itself is owned by another subsystem.
type OrderRepository interface {
	GetOrderByID(id int64) (*models.Order, error)
	ListOrders(branchID, date string, status *string) ([]models.Order, error)
	CountOpenOrdersForDate(branchID, date string) (int, error)
	CashTakingsByShift(executor SQLExecutor, shiftID int64) (cashSales, cashRefunds float64, err error)
	CardSalesByShift(executor SQLExecutor, shiftID int64) (float64, error)
	SalesAggregatesForDate(branchID, terminalID, date string) (*models.SalesSummary, error)
	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, branch_id, terminal_id, shift_id, order_type, status, payment_method, total_amount, created_at, updated_at`

func scanOrderRow(row scanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.BranchID, &o.TerminalID, &o.ShiftID, &o.OrderType,
		&o.Status, &o.PaymentMethod, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
	}
	return &o, nil
}

func (r *orderRepository) GetOrderByID(id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrderRow(r.db.QueryRow(query, id))
}

func (r *orderRepository) ListOrders(branchID, date string, status *string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE branch_id = $1 AND created_at::date = $2::date`
	args := []interface{}{branchID, date}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, nil
}

// CountOpenOrdersForDate counts orders not yet in a terminal status.
func (r *orderRepository) CountOpenOrdersForDate(branchID, date string) (int, error) {
	query := `SELECT COUNT(*) FROM orders
	          WHERE branch_id = $1 AND created_at::date <= $2::date
	            AND status NOT IN ('delivered', 'completed', 'cancelled', 'refunded')`
	var count int
	if err := r.db.QueryRow(query, branchID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open orders: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// CashTakingsByShift computes the shift's cash sales and cash refunds
// fresh from the orders table at close time.
func (r *orderRepository) CashTakingsByShift(executor SQLExecutor, shiftID int64) (float64, float64, error) {
	query := `SELECT
	            COALESCE(SUM(total_amount) FILTER (WHERE status NOT IN ('cancelled', 'refunded')), 0),
	            COALESCE(SUM(total_amount) FILTER (WHERE status = 'refunded'), 0)
	          FROM orders
	          WHERE shift_id = $1 AND payment_method = 'cash'`
	var sales, refunds float64
	if err := executor.QueryRow(query, shiftID).Scan(&sales, &refunds); err != nil {
		return 0, 0, fmt.Errorf("%w: computing cash takings for shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	return sales, refunds, nil
}

func (r *orderRepository) CardSalesByShift(executor SQLExecutor, shiftID int64) (float64, error) {
	executor = fallback(executor, r.db)
	query := `SELECT COALESCE(SUM(total_amount), 0)
	          FROM orders
	          WHERE shift_id = $1 AND payment_method = 'card' AND status NOT IN ('cancelled', 'refunded')`
	var sales float64
	if err := executor.QueryRow(query, shiftID).Scan(&sales); err != nil {
		return 0, fmt.Errorf("%w: computing card sales for shift %d: %v", ErrDatabaseError, shiftID, err)
	}
	return sales, nil
}

// SalesAggregatesForDate sums settled order money for the branch and
// date. An empty terminalID spans the whole branch.
func (r *orderRepository) SalesAggregatesForDate(branchID, terminalID, date string) (*models.SalesSummary, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(total_amount), 0),
	                 COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'cash'), 0),
	                 COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'card'), 0),
	                 COUNT(*) FILTER (WHERE order_type = 'in_store'),
	                 COALESCE(SUM(total_amount) FILTER (WHERE order_type = 'in_store'), 0),
	                 COUNT(*) FILTER (WHERE order_type = 'delivery'),
	                 COALESCE(SUM(total_amount) FILTER (WHERE order_type = 'delivery'), 0)
	          FROM orders
	          WHERE branch_id = $1 AND created_at::date = $2::date AND status NOT IN ('cancelled', 'refunded')`
	args := []interface{}{branchID, date}
	if terminalID != "" {
		query += ` AND terminal_id = $3`
		args = append(args, terminalID)
	}
	var s models.SalesSummary
	err := r.db.QueryRow(query, args...).Scan(
		&s.TotalOrders, &s.TotalSales, &s.CashSales, &s.CardSales,
		&s.ByType.InStore.Orders, &s.ByType.InStore.Sales,
		&s.ByType.Delivery.Orders, &s.ByType.Delivery.Sales,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sales: %v", ErrDatabaseError, err)
	}
	return &s, nil
}

func (r *orderRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM orders WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging orders: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
