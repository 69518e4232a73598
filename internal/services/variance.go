package services

// Variance math for shift close. Both formulas are pure functions over
// aggregates computed fresh at close time; no cached running "expected"
// value is trusted.

// CashierCloseInputs are the drawer-scoped aggregates behind a cashier
// or manager close. DriverCashGiven/Returned must already be adjusted
// for drivers released to the pending transfer state during this close.
type CashierCloseInputs struct {
	Opening            float64
	CashSales          float64
	CashRefunds        float64
	ApprovedExpenses   float64
	CashDrops          float64
	DriverCashGiven    float64
	DriverCashReturned float64
	StaffPayments      float64
}

// CashierExpected computes the cash a cashier drawer should hold at close.
func CashierExpected(in CashierCloseInputs) float64 {
	return in.Opening + in.CashSales - in.CashRefunds - in.ApprovedExpenses -
		in.CashDrops - in.DriverCashGiven + in.DriverCashReturned - in.StaffPayments
}

// DriverCloseInputs are the shift-scoped aggregates behind a driver close.
type DriverCloseInputs struct {
	CashCollected    float64
	OpeningAmount    float64
	ApprovedExpenses float64
	PaymentAmount    float64
}

// DriverExpectedReturn computes the cash a driver owes back at close.
// The result may be negative (the house owes the driver); it is never
// clamped.
func DriverExpectedReturn(in DriverCloseInputs) float64 {
	return in.CashCollected - in.OpeningAmount - in.ApprovedExpenses - in.PaymentAmount
}

// VarianceResult is the outcome of a close: positive variance is an
// overage, negative a shortage.
type VarianceResult struct {
	Expected float64 `json:"expected"`
	Variance float64 `json:"variance"`
}

// ComputeVariance pairs an expected amount with the counted closing cash.
func ComputeVariance(expected, closingCash float64) VarianceResult {
	return VarianceResult{Expected: expected, Variance: closingCash - expected}
}
