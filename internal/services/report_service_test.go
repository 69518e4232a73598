package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
)

func testShift(id int64, role models.StaffRole, name string) models.Shift {
	return models.Shift{
		ID:        id,
		StaffID:   id * 10,
		StaffName: name,
		Role:      role,
		Status:    models.ShiftClosed,
		CheckIn:   time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
	}
}

func TestAssembleDailyReport_OneStaffReportPerShift(t *testing.T) {
	// The same person twice in one day still yields two entries.
	shifts := []models.Shift{
		testShift(1, models.RoleCashier, "Aigerim"),
		testShift(2, models.RoleCashier, "Aigerim"),
		testShift(3, models.RoleDriver, "Bolat"),
		testShift(4, models.RoleKitchen, "Dana"),
		testShift(5, models.RoleServer, "Erlan"),
		testShift(6, models.RoleManager, "Gulnara"),
	}
	shifts[2].StaffID = shifts[0].StaffID // not relevant; ids differ per shift

	report := assembleDailyReport("branch-1", "t-1", "2026-03-14", shifts,
		models.SalesSummary{}, models.DrawerSummary{}, nil, 0, models.DriverEarningsSummary{})

	assert.Equal(t, "t-1", report.TerminalID)
	require.Len(t, report.StaffReports, len(shifts))
	assert.Equal(t, 6, report.Shifts.Total)
	assert.Equal(t, 2, report.Shifts.Cashier)
	assert.Equal(t, 1, report.Shifts.Manager)
	assert.Equal(t, 1, report.Shifts.Driver)
	assert.Equal(t, 1, report.Shifts.Kitchen)
	assert.Equal(t, 1, report.Shifts.Server)

	for i, sr := range report.StaffReports {
		assert.Equal(t, shifts[i].ID, sr.ShiftID)
		assert.Equal(t, shifts[i].StaffName, sr.StaffName)
	}
}

func TestAssembleDailyReport_StaffPaymentsNotDoubleCounted(t *testing.T) {
	desc := "cleaning supplies"
	expenses := []models.Expense{
		{ID: 1, ShiftID: 1, ExpenseType: "supplies", Amount: 40, Description: &desc, Status: models.ExpenseApproved},
		{ID: 2, ShiftID: 1, ExpenseType: models.ExpenseTypeStaffPayment, Amount: 100, Status: models.ExpenseApproved},
		{ID: 3, ShiftID: 1, ExpenseType: "fuel", Amount: 25, Status: models.ExpensePending},
		{ID: 4, ShiftID: 1, ExpenseType: "repairs", Amount: 60, Status: models.ExpenseRejected},
	}

	report := assembleDailyReport("branch-1", "", "2026-03-14", nil,
		models.SalesSummary{}, models.DrawerSummary{}, expenses, 100, models.DriverEarningsSummary{})

	// Only the approved non-staff-payment row counts; the 100 lives in
	// StaffPaymentsTotal alone.
	assert.InDelta(t, 40.0, report.Expenses.Total, 1e-9)
	assert.InDelta(t, 100.0, report.Expenses.StaffPaymentsTotal, 1e-9)
	assert.Equal(t, 1, report.Expenses.PendingCount)
	assert.Len(t, report.Expenses.Items, 4)
	assert.Equal(t, "cleaning supplies", report.Expenses.Items[0].Description)
}

func TestMergeDailyReports_Additive(t *testing.T) {
	a := models.DailyReport{
		Date:       "2026-03-14",
		BranchID:   "branch-1",
		TerminalID: "t-1",
		Shifts:     models.ShiftCounts{Total: 3, Cashier: 1, Driver: 2},
		Sales: models.SalesSummary{
			TotalOrders: 10, TotalSales: 500, CashSales: 300, CardSales: 200,
			ByType: models.SalesByType{
				InStore:  models.ChannelSales{Orders: 6, Sales: 280},
				Delivery: models.ChannelSales{Orders: 4, Sales: 220},
			},
		},
		CashDrawer: models.DrawerSummary{Sessions: 1, OpeningTotal: 100, VarianceTotal: -5},
		Expenses: models.ExpenseSummary{
			Total: 40, PendingCount: 1, StaffPaymentsTotal: 60,
			Items: []models.ExpenseItem{{ID: 1, Amount: 40}},
		},
		DriverEarnings: models.DriverEarningsSummary{Deliveries: 4, CashCollected: 150},
		StaffReports:   []models.StaffReport{{ShiftID: 1}, {ShiftID: 2}, {ShiftID: 3}},
	}
	b := models.DailyReport{
		Date:       "2026-03-14",
		BranchID:   "branch-1",
		TerminalID: "t-2",
		Shifts:     models.ShiftCounts{Total: 2, Cashier: 1, Server: 1},
		Sales: models.SalesSummary{
			TotalOrders: 4, TotalSales: 180, CashSales: 180,
			ByType: models.SalesByType{InStore: models.ChannelSales{Orders: 4, Sales: 180}},
		},
		CashDrawer:     models.DrawerSummary{Sessions: 1, OpeningTotal: 50, VarianceTotal: 2},
		Expenses:       models.ExpenseSummary{Total: 15, Items: []models.ExpenseItem{{ID: 2, Amount: 15}}},
		DriverEarnings: models.DriverEarningsSummary{Deliveries: 1, CashCollected: 30},
		StaffReports:   []models.StaffReport{{ShiftID: 4}, {ShiftID: 5}},
	}

	merged := MergeDailyReports([]models.DailyReport{a, b})

	assert.Equal(t, "2026-03-14", merged.Date)
	assert.Equal(t, "branch-1", merged.BranchID)
	assert.Equal(t, 5, merged.Shifts.Total)
	assert.Equal(t, 2, merged.Shifts.Cashier)
	assert.Equal(t, 14, merged.Sales.TotalOrders)
	assert.InDelta(t, 680.0, merged.Sales.TotalSales, 1e-9)
	assert.Equal(t, 10, merged.Sales.ByType.InStore.Orders)
	assert.Equal(t, 4, merged.Sales.ByType.Delivery.Orders)
	assert.Equal(t, 2, merged.CashDrawer.Sessions)
	assert.InDelta(t, -3.0, merged.CashDrawer.VarianceTotal, 1e-9)
	assert.InDelta(t, 55.0, merged.Expenses.Total, 1e-9)
	assert.InDelta(t, 60.0, merged.Expenses.StaffPaymentsTotal, 1e-9)
	assert.Len(t, merged.Expenses.Items, 2)
	assert.Equal(t, 5, merged.DriverEarnings.Deliveries)
	assert.InDelta(t, 180.0, merged.DriverEarnings.CashCollected, 1e-9)
	assert.Len(t, merged.StaffReports, 5)

	// Per-terminal slices survive the roll-up.
	require.Len(t, merged.TerminalBreakdown, 2)
	assert.Equal(t, "t-1", merged.TerminalBreakdown[0].TerminalID)
	assert.Equal(t, "t-2", merged.TerminalBreakdown[1].TerminalID)
	assert.Equal(t, 3, merged.TerminalBreakdown[0].Shifts.Total)
}

func TestMergeDailyReports_Empty(t *testing.T) {
	merged := MergeDailyReports(nil)
	assert.Equal(t, 0, merged.Shifts.Total)
	assert.Empty(t, merged.StaffReports)
}

func newReportServiceTest(t *testing.T) (ReportService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewReportService(
		repositories.NewShiftRepository(db),
		repositories.NewDrawerRepository(db),
		repositories.NewExpenseRepository(db),
		repositories.NewDriverEarningRepository(db),
		repositories.NewOrderRepository(db),
	)
	return svc, mock, func() { db.Close() }
}

func expectTerminalPass(mock sqlmock.Sqlmock, terminal string, orders int, sales float64) {
	args := []driver.Value{"branch-1", "2026-03-14", terminal}
	mock.ExpectQuery("FROM shifts").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))
	mock.ExpectQuery("FROM orders").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "total", "cash", "card", "in_store_orders", "in_store_sales", "delivery_orders", "delivery_sales",
		}).AddRow(orders, sales, sales, 0.0, orders, sales, 0, 0.0))
	mock.ExpectQuery("FROM cash_drawer_sessions").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"sessions", "opening", "closing", "expected", "variance", "drops", "given", "returned",
		}).AddRow(1, 100.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0))
	mock.ExpectQuery("FROM expenses e").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shift_id", "expense_type", "amount", "description", "status", "created_at", "updated_at",
		}))
	mock.ExpectQuery("FROM staff_payments p").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))
	mock.ExpectQuery("FROM driver_earnings e").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "cancelled", "fees", "tips", "cash", "card",
		}).AddRow(0, 0, 0.0, 0.0, 0.0, 0.0))
}

func TestGenerateBranchDailyReport_FansOutPerTerminal(t *testing.T) {
	svc, mock, cleanup := newReportServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT DISTINCT terminal_id").WithArgs("branch-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"terminal_id"}).AddRow("t-1").AddRow("t-2"))
	expectTerminalPass(mock, "t-1", 10, 500)
	expectTerminalPass(mock, "t-2", 4, 180)

	report, err := svc.GenerateBranchDailyReport("branch-1", "2026-03-14")
	require.NoError(t, err)

	assert.Equal(t, "branch-1", report.BranchID)
	assert.Equal(t, "2026-03-14", report.Date)
	assert.Equal(t, 14, report.Sales.TotalOrders)
	assert.InDelta(t, 680.0, report.Sales.TotalSales, 1e-9)
	assert.Equal(t, 2, report.CashDrawer.Sessions)

	require.Len(t, report.TerminalBreakdown, 2)
	assert.Equal(t, "t-1", report.TerminalBreakdown[0].TerminalID)
	assert.Equal(t, 10, report.TerminalBreakdown[0].Sales.TotalOrders)
	assert.Equal(t, "t-2", report.TerminalBreakdown[1].TerminalID)
	assert.InDelta(t, 180.0, report.TerminalBreakdown[1].Sales.TotalSales, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateBranchDailyReport_NoDrawersFallsBackToBranchPass(t *testing.T) {
	svc, mock, cleanup := newReportServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT DISTINCT terminal_id").WithArgs("branch-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"terminal_id"}))

	// One branch-wide pass with no terminal filter.
	args := []driver.Value{"branch-1", "2026-03-14"}
	mock.ExpectQuery("FROM shifts").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows(shiftTestColumns))
	mock.ExpectQuery("FROM orders").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "total", "cash", "card", "in_store_orders", "in_store_sales", "delivery_orders", "delivery_sales",
		}).AddRow(3, 75.0, 75.0, 0.0, 3, 75.0, 0, 0.0))
	mock.ExpectQuery("FROM cash_drawer_sessions").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"sessions", "opening", "closing", "expected", "variance", "drops", "given", "returned",
		}).AddRow(0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0))
	mock.ExpectQuery("FROM expenses e").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shift_id", "expense_type", "amount", "description", "status", "created_at", "updated_at",
		}))
	mock.ExpectQuery("FROM staff_payments p").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))
	mock.ExpectQuery("FROM driver_earnings e").WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "cancelled", "fees", "tips", "cash", "card",
		}).AddRow(0, 0, 0.0, 0.0, 0.0, 0.0))

	report, err := svc.GenerateBranchDailyReport("branch-1", "2026-03-14")
	require.NoError(t, err)

	assert.Equal(t, "", report.TerminalID)
	assert.Equal(t, 3, report.Sales.TotalOrders)
	assert.Empty(t, report.TerminalBreakdown)

	assert.NoError(t, mock.ExpectationsWereMet())
}
