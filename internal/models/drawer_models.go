package models

import "time"

// CashDrawerSession is the cash-accountability record tied 1:1 to a
// cashier shift. Running totals are only ever mutated by additive
// updates; expected/variance are stamped once, at close.
type CashDrawerSession struct {
	ID         int64  `json:"id" db:"id"`
	ShiftID    int64  `json:"shift_id" db:"shift_id"`
	BranchID   string `json:"branch_id" db:"branch_id"`
	TerminalID string `json:"terminal_id" db:"terminal_id"`

	OpeningAmount      float64 `json:"opening_amount" db:"opening_amount"`
	CashSales          float64 `json:"cash_sales" db:"cash_sales"`
	CardSales          float64 `json:"card_sales" db:"card_sales"`
	CashRefunds        float64 `json:"cash_refunds" db:"cash_refunds"`
	TotalExpenses      float64 `json:"total_expenses" db:"total_expenses"`
	TotalDrops         float64 `json:"total_drops" db:"total_drops"`
	DriverCashGiven    float64 `json:"driver_cash_given" db:"driver_cash_given"`
	DriverCashReturned float64 `json:"driver_cash_returned" db:"driver_cash_returned"`
	TotalStaffPayments float64 `json:"total_staff_payments" db:"total_staff_payments"`

	ClosingAmount  *float64   `json:"closing_amount,omitempty" db:"closing_amount"`
	ExpectedAmount *float64   `json:"expected_amount,omitempty" db:"expected_amount"`
	Variance       *float64   `json:"variance,omitempty" db:"variance"`
	ClosedAt       *time.Time `json:"closed_at,omitempty" db:"closed_at"`

	Reconciled          bool    `json:"reconciled" db:"reconciled"`
	ReconciledBy        *int64  `json:"reconciled_by,omitempty" db:"reconciled_by"`
	ReconciliationNotes *string `json:"reconciliation_notes,omitempty" db:"reconciliation_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsClosed reports whether the session has been stamped with a close.
func (s *CashDrawerSession) IsClosed() bool {
	return s.ClosedAt != nil
}
