package models

import "time"

// OrderType is the sales channel an order came through.
type OrderType string

const (
	OrderInStore  OrderType = "in_store"
	OrderDelivery OrderType = "delivery"
)

// Order statuses. The order flow itself lives outside this service; the
// core only reads orders for report aggregation and the end-of-day gate.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// PaymentMethod values recorded on orders.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// Order is the minimal order projection this service reads.
type Order struct {
	ID            int64     `json:"id" db:"id"`
	BranchID      string    `json:"branch_id" db:"branch_id"`
	TerminalID    string    `json:"terminal_id" db:"terminal_id"`
	ShiftID       *int64    `json:"shift_id,omitempty" db:"shift_id"`
	OrderType     OrderType `json:"order_type" db:"order_type"`
	Status        string    `json:"status" db:"status"`
	PaymentMethod *string   `json:"payment_method,omitempty" db:"payment_method"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
