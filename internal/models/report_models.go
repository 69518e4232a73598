package models

import "time"

// DailyReport is the Z-report aggregate for one branch and one date.
// It is a pure read-side projection, regenerated on demand, never stored.
type DailyReport struct {
	Date              string                `json:"date"` // YYYY-MM-DD
	BranchID          string                `json:"branch_id"`
	TerminalID        string                `json:"terminal_id,omitempty"`
	Shifts            ShiftCounts           `json:"shifts"`
	Sales             SalesSummary          `json:"sales"`
	CashDrawer        DrawerSummary         `json:"cash_drawer"`
	Expenses          ExpenseSummary        `json:"expenses"`
	DriverEarnings    DriverEarningsSummary `json:"driver_earnings"`
	StaffReports      []StaffReport         `json:"staff_reports"`
	TerminalBreakdown []TerminalBreakdown   `json:"terminal_breakdown,omitempty"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// ShiftCounts is the number of shifts opened on the date, by role.
type ShiftCounts struct {
	Total   int `json:"total"`
	Cashier int `json:"cashier"`
	Manager int `json:"manager"`
	Driver  int `json:"driver"`
	Kitchen int `json:"kitchen"`
	Server  int `json:"server"`
}

// ChannelSales is sales volume through one order channel.
type ChannelSales struct {
	Orders int     `json:"orders"`
	Sales  float64 `json:"sales"`
}

// SalesByType splits sales by order channel.
type SalesByType struct {
	InStore  ChannelSales `json:"in_store"`
	Delivery ChannelSales `json:"delivery"`
}

// SalesSummary is the day's sales totals by payment method and channel.
type SalesSummary struct {
	TotalOrders int         `json:"total_orders"`
	TotalSales  float64     `json:"total_sales"`
	CashSales   float64     `json:"cash_sales"`
	CardSales   float64     `json:"card_sales"`
	ByType      SalesByType `json:"by_type"`
}

// DrawerSummary aggregates the day's cash drawer sessions.
type DrawerSummary struct {
	Sessions           int     `json:"sessions"`
	OpeningTotal       float64 `json:"opening_total"`
	ClosingTotal       float64 `json:"closing_total"`
	ExpectedTotal      float64 `json:"expected_total"`
	VarianceTotal      float64 `json:"variance_total"`
	DropsTotal         float64 `json:"drops_total"`
	DriverCashGiven    float64 `json:"driver_cash_given"`
	DriverCashReturned float64 `json:"driver_cash_returned"`
}

// ExpenseItem is one expense line on the report.
type ExpenseItem struct {
	ID          int64   `json:"id"`
	ShiftID     int64   `json:"shift_id"`
	ExpenseType string  `json:"expense_type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
}

// ExpenseSummary is the day's expense totals. Staff-payment-type expense
// rows are excluded from Total; staff payments are reported from the
// staff_payments table instead so nothing is counted twice.
type ExpenseSummary struct {
	Total              float64       `json:"total"`
	PendingCount       int           `json:"pending_count"`
	StaffPaymentsTotal float64       `json:"staff_payments_total"`
	Items              []ExpenseItem `json:"items"`
}

// DriverEarningsSummary aggregates the day's delivery earnings,
// cancelled deliveries included.
type DriverEarningsSummary struct {
	Deliveries          int     `json:"deliveries"`
	CancelledDeliveries int     `json:"cancelled_deliveries"`
	DeliveryFees        float64 `json:"delivery_fees"`
	Tips                float64 `json:"tips"`
	CashCollected       float64 `json:"cash_collected"`
	CardAmount          float64 `json:"card_amount"`
}

// StaffReport is one entry per shift on the date (a person with two
// shifts yields two entries). Sorted by role, then check-in time.
type StaffReport struct {
	ShiftID        int64      `json:"shift_id"`
	StaffID        int64      `json:"staff_id"`
	StaffName      string     `json:"staff_name"`
	Role           StaffRole  `json:"role"`
	Status         string     `json:"status"`
	CheckIn        time.Time  `json:"check_in"`
	CheckOut       *time.Time `json:"check_out,omitempty"`
	OpeningAmount  float64    `json:"opening_amount"`
	ClosingAmount  *float64   `json:"closing_amount,omitempty"`
	ExpectedAmount *float64   `json:"expected_amount,omitempty"`
	Variance       *float64   `json:"variance,omitempty"`
	PaymentAmount  *float64   `json:"payment_amount,omitempty"`
}

// TerminalBreakdown is one sibling terminal's slice of an aggregated
// multi-terminal report.
type TerminalBreakdown struct {
	TerminalID string        `json:"terminal_id"`
	Shifts     ShiftCounts   `json:"shifts"`
	Sales      SalesSummary  `json:"sales"`
	CashDrawer DrawerSummary `json:"cash_drawer"`
}
