package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCashierExpected(t *testing.T) {
	tests := []struct {
		name     string
		inputs   CashierCloseInputs
		expected float64
	}{
		{
			name: "plain_sales_day",
			inputs: CashierCloseInputs{
				Opening:          100,
				CashSales:        250,
				ApprovedExpenses: 20,
			},
			expected: 330,
		},
		{
			name: "all_flows_present",
			inputs: CashierCloseInputs{
				Opening:            200,
				CashSales:          1000,
				CashRefunds:        50,
				ApprovedExpenses:   80,
				CashDrops:          300,
				DriverCashGiven:    150,
				DriverCashReturned: 120,
				StaffPayments:      40,
			},
			expected: 200 + 1000 - 50 - 80 - 300 - 150 + 120 - 40,
		},
		{
			name: "negative_driver_return_lowers_expected",
			inputs: CashierCloseInputs{
				Opening:            100,
				DriverCashReturned: -25,
			},
			expected: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CashierExpected(tt.inputs), 1e-9)
		})
	}
}

func TestComputeVariance_SignConvention(t *testing.T) {
	// Balanced drawer: counted cash equals expected.
	expected := CashierExpected(CashierCloseInputs{Opening: 100, CashSales: 250, ApprovedExpenses: 20})
	result := ComputeVariance(expected, 330)
	assert.InDelta(t, 330.0, result.Expected, 1e-9)
	assert.InDelta(t, 0.0, result.Variance, 1e-9)

	// Shortage is negative, overage is positive.
	assert.InDelta(t, -10.0, ComputeVariance(100, 90).Variance, 1e-9)
	assert.InDelta(t, 15.0, ComputeVariance(100, 115).Variance, 1e-9)
}

func TestDriverExpectedReturn(t *testing.T) {
	in := DriverCloseInputs{
		CashCollected:    200,
		OpeningAmount:    50,
		ApprovedExpenses: 10,
		PaymentAmount:    15,
	}
	expectedReturn := DriverExpectedReturn(in)
	assert.InDelta(t, 125.0, expectedReturn, 1e-9)

	// Driver hands back less than owed: the shortage rides the variance,
	// never clamped to zero.
	result := ComputeVariance(expectedReturn, 100)
	assert.InDelta(t, -25.0, result.Variance, 1e-9)
}

func TestDriverExpectedReturn_HouseOwesDriver(t *testing.T) {
	// Card-heavy day: the driver fronted more float than they collected
	// in cash, so the expected return goes negative and stays negative.
	in := DriverCloseInputs{
		CashCollected: 30,
		OpeningAmount: 50,
		PaymentAmount: 20,
	}
	assert.InDelta(t, -40.0, DriverExpectedReturn(in), 1e-9)
}
