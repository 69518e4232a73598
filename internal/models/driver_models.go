package models

import "time"

// DriverEarning is one delivery's worth of money handled by a driver.
// CashToReturn is derived at insert time: cash_collected - card_amount.
// Transferred is set when the owning driver shift is handed off so the
// daily report can attribute the earning regardless of which cashier
// eventually closes the loop.
type DriverEarning struct {
	ID            int64     `json:"id" db:"id"`
	ShiftID       int64     `json:"shift_id" db:"shift_id"`
	OrderID       int64     `json:"order_id" db:"order_id"`
	DeliveryFee   float64   `json:"delivery_fee" db:"delivery_fee"`
	TipAmount     float64   `json:"tip_amount" db:"tip_amount"`
	CashCollected float64   `json:"cash_collected" db:"cash_collected"`
	CardAmount    float64   `json:"card_amount" db:"card_amount"`
	CashToReturn  float64   `json:"cash_to_return" db:"cash_to_return"`
	Transferred   bool      `json:"transferred" db:"transferred"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
