package models

import (
	"fmt"
	"strings"
	"time"
)

// ExpenseStatus is the approval state of an expense record.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
)

// Expense is a cash outflow recorded against one shift. Only approved
// expenses feed the owning drawer's total_expenses.
type Expense struct {
	ID          int64         `json:"id" db:"id"`
	ShiftID     int64         `json:"shift_id" db:"shift_id"`
	ExpenseType string        `json:"expense_type" db:"expense_type"`
	Amount      float64       `json:"amount" db:"amount"`
	Description *string       `json:"description,omitempty" db:"description"`
	Status      ExpenseStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// StaffPaymentType is the closed set of direct disbursement kinds.
type StaffPaymentType string

const (
	PaymentWage    StaffPaymentType = "wage"
	PaymentTip     StaffPaymentType = "tip"
	PaymentBonus   StaffPaymentType = "bonus"
	PaymentAdvance StaffPaymentType = "advance"
)

// ParseStaffPaymentType validates a payment type string at the boundary.
func ParseStaffPaymentType(s string) (StaffPaymentType, error) {
	switch StaffPaymentType(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentWage:
		return PaymentWage, nil
	case PaymentTip:
		return PaymentTip, nil
	case PaymentBonus:
		return PaymentBonus, nil
	case PaymentAdvance:
		return PaymentAdvance, nil
	}
	return "", fmt.Errorf("unknown staff payment type %q", s)
}

// StaffPayment is a cash disbursement from a cashier's drawer to another
// staff member. StaffShiftID is nil for off-shift payments. Payments
// feed total_staff_payments, never total_expenses.
type StaffPayment struct {
	ID             int64            `json:"id" db:"id"`
	CashierShiftID int64            `json:"cashier_shift_id" db:"cashier_shift_id"`
	StaffShiftID   *int64           `json:"staff_shift_id,omitempty" db:"staff_shift_id"`
	PaidToStaffID  int64            `json:"paid_to_staff_id" db:"paid_to_staff_id"`
	Amount         float64          `json:"amount" db:"amount"`
	PaymentType    StaffPaymentType `json:"payment_type" db:"payment_type"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// ExpenseTypeStaffPayment marks legacy expense rows that mirror staff
// payments; report totals exclude them to avoid double counting.
const ExpenseTypeStaffPayment = "staff_payment"
