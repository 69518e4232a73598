package models

import "time"

// Dining table statuses.
const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
)

// DiningTable is a physical table at a branch. The end-of-day finalizer
// resets every table back to available.
type DiningTable struct {
	ID       int64  `json:"id" db:"id"`
	BranchID string `json:"branch_id" db:"branch_id"`
	Name     string `json:"name" db:"name"`
	Status   string `json:"status" db:"status"`
}

// TableSession links a table to the order currently seated at it.
type TableSession struct {
	ID       int64      `json:"id" db:"id"`
	TableID  int64      `json:"table_id" db:"table_id"`
	OrderID  *int64     `json:"order_id,omitempty" db:"order_id"`
	Status   string     `json:"status" db:"status"`
	OpenedAt time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}
