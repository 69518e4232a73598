package models

import (
	"fmt"
	"strings"
	"time"
)

// StaffRole is the closed set of roles a shift can be opened under.
type StaffRole string

const (
	RoleCashier StaffRole = "cashier"
	RoleManager StaffRole = "manager"
	RoleDriver  StaffRole = "driver"
	RoleKitchen StaffRole = "kitchen"
	RoleServer  StaffRole = "server"
)

// ParseStaffRole validates a role string at the boundary.
func ParseStaffRole(s string) (StaffRole, error) {
	switch StaffRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCashier:
		return RoleCashier, nil
	case RoleManager:
		return RoleManager, nil
	case RoleDriver:
		return RoleDriver, nil
	case RoleKitchen:
		return RoleKitchen, nil
	case RoleServer:
		return RoleServer, nil
	}
	return "", fmt.Errorf("unknown staff role %q", s)
}

// HasDrawer reports whether a shift of this role owns a cash drawer session.
func (r StaffRole) HasDrawer() bool {
	return r == RoleCashier || r == RoleManager
}

// ShiftStatus is the lifecycle state of a shift record.
type ShiftStatus string

const (
	ShiftActive    ShiftStatus = "active"
	ShiftClosed    ShiftStatus = "closed"
	ShiftAbandoned ShiftStatus = "abandoned"
)

// TransferState is the driver hand-off state, derived from the two
// transfer columns rather than stored.
type TransferState string

const (
	TransferAttached TransferState = "attached"
	TransferPending  TransferState = "pending"
	TransferClaimed  TransferState = "claimed"
)

// Shift is one working period for one staff member under one role.
type Shift struct {
	ID         int64       `json:"id" db:"id"`
	StaffID    int64       `json:"staff_id" db:"staff_id" binding:"required"`
	StaffName  string      `json:"staff_name" db:"staff_name"`
	BranchID   string      `json:"branch_id" db:"branch_id"`
	TerminalID string      `json:"terminal_id" db:"terminal_id"`
	Role       StaffRole   `json:"role" db:"role"`
	Status     ShiftStatus `json:"status" db:"status"`
	CheckIn    time.Time   `json:"check_in" db:"check_in"`
	CheckOut   *time.Time  `json:"check_out,omitempty" db:"check_out"`

	OpeningAmount  float64  `json:"opening_amount" db:"opening_amount"`
	ClosingAmount  *float64 `json:"closing_amount,omitempty" db:"closing_amount"`
	ExpectedAmount *float64 `json:"expected_amount,omitempty" db:"expected_amount"`
	Variance       *float64 `json:"variance,omitempty" db:"variance"`
	PaymentAmount  *float64 `json:"payment_amount,omitempty" db:"payment_amount"`

	TransferPendingFlag  bool   `json:"transfer_pending" db:"transfer_pending"`
	TransferredToShiftID *int64 `json:"transferred_to_cashier_shift_id,omitempty" db:"transferred_to_shift_id"`

	IsDayStart bool      `json:"is_day_start" db:"is_day_start"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TransferState derives the hand-off state from the transfer columns.
func (s *Shift) TransferState() TransferState {
	switch {
	case s.TransferPendingFlag:
		return TransferPending
	case s.TransferredToShiftID != nil:
		return TransferClaimed
	default:
		return TransferAttached
	}
}

// IsActive reports whether the shift is still open.
func (s *Shift) IsActive() bool {
	return s.Status == ShiftActive
}

// ShiftSummary joins a shift with the records attributed to it.
type ShiftSummary struct {
	Shift         Shift              `json:"shift"`
	Drawer        *CashDrawerSession `json:"drawer,omitempty"`
	Expenses      []Expense          `json:"expenses"`
	Earnings      []DriverEarning    `json:"earnings,omitempty"`
	StaffPayments []StaffPayment     `json:"staff_payments,omitempty"`
}
