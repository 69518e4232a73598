package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// ReportService produces the end-of-day Z-report. Reports are read-side
// projections assembled fresh from the tables on every call; nothing is
// stored back.
type ReportService interface {
	GenerateDailyReport(branchID, terminalID, date string) (*models.DailyReport, error)
	GenerateBranchDailyReport(branchID, date string) (*models.DailyReport, error)
	ExportDailyReportPDF(branchID, terminalID, date string) ([]byte, error)
}

type reportService struct {
	shiftRepo   repositories.ShiftRepository
	drawerRepo  repositories.DrawerRepository
	expenseRepo repositories.ExpenseRepository
	earningRepo repositories.DriverEarningRepository
	orderRepo   repositories.OrderRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	sr repositories.ShiftRepository,
	dr repositories.DrawerRepository,
	er repositories.ExpenseRepository,
	der repositories.DriverEarningRepository,
	or repositories.OrderRepository,
) ReportService {
	return &reportService{shiftRepo: sr, drawerRepo: dr, expenseRepo: er, earningRepo: der, orderRepo: or}
}

// GenerateDailyReport builds the report for one branch and date. An
// empty terminalID spans the whole branch in a single pass; otherwise
// every figure is scoped to that terminal.
func (s *reportService) GenerateDailyReport(branchID, terminalID, date string) (*models.DailyReport, error) {
	shifts, err := s.shiftRepo.GetShiftsByDate(branchID, terminalID, date, nil)
	if err != nil {
		return nil, fmt.Errorf("daily report: loading shifts: %w", err)
	}
	sales, err := s.orderRepo.SalesAggregatesForDate(branchID, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: aggregating sales: %w", err)
	}
	drawers, err := s.drawerRepo.AggregatesForDate(branchID, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: aggregating drawers: %w", err)
	}
	expenses, err := s.expenseRepo.ListExpensesByDate(branchID, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: loading expenses: %w", err)
	}
	staffPayments, err := s.expenseRepo.SumStaffPaymentsByDate(branchID, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: summing staff payments: %w", err)
	}
	earnings, err := s.earningRepo.AggregateByDate(branchID, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: aggregating driver earnings: %w", err)
	}

	report := assembleDailyReport(branchID, terminalID, date, shifts, *sales, *drawers, expenses, staffPayments, *earnings)
	return &report, nil
}

// GenerateBranchDailyReport fans out one report per terminal that traded
// on the date and merges them with a per-terminal breakdown attached.
func (s *reportService) GenerateBranchDailyReport(branchID, date string) (*models.DailyReport, error) {
	terminals, err := s.drawerRepo.ListTerminalsForDate(branchID, date)
	if err != nil {
		return nil, fmt.Errorf("branch report: listing terminals: %w", err)
	}
	if len(terminals) == 0 {
		// No drawers opened: fall through to a single branch-wide pass so
		// order-only activity still shows up.
		return s.GenerateDailyReport(branchID, "", date)
	}

	reports := make([]models.DailyReport, 0, len(terminals))
	for _, terminalID := range terminals {
		report, err := s.GenerateDailyReport(branchID, terminalID, date)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	merged := MergeDailyReports(reports)
	return &merged, nil
}

// assembleDailyReport combines pre-aggregated inputs into a report. Pure
// so the shape invariants (one staff report per shift, staff payments
// never double counted in the expense total) are testable without a
// database.
func assembleDailyReport(
	branchID, terminalID, date string,
	shifts []models.Shift,
	sales models.SalesSummary,
	drawers models.DrawerSummary,
	expenses []models.Expense,
	staffPaymentsTotal float64,
	earnings models.DriverEarningsSummary,
) models.DailyReport {
	report := models.DailyReport{
		Date:           date,
		BranchID:       branchID,
		TerminalID:     terminalID,
		Sales:          sales,
		CashDrawer:     drawers,
		DriverEarnings: earnings,
		StaffReports:   make([]models.StaffReport, 0, len(shifts)),
		GeneratedAt:    time.Now(),
	}

	for _, shift := range shifts {
		report.Shifts.Total++
		switch shift.Role {
		case models.RoleCashier:
			report.Shifts.Cashier++
		case models.RoleManager:
			report.Shifts.Manager++
		case models.RoleDriver:
			report.Shifts.Driver++
		case models.RoleKitchen:
			report.Shifts.Kitchen++
		case models.RoleServer:
			report.Shifts.Server++
		}
		report.StaffReports = append(report.StaffReports, models.StaffReport{
			ShiftID:        shift.ID,
			StaffID:        shift.StaffID,
			StaffName:      shift.StaffName,
			Role:           shift.Role,
			Status:         string(shift.Status),
			CheckIn:        shift.CheckIn,
			CheckOut:       shift.CheckOut,
			OpeningAmount:  shift.OpeningAmount,
			ClosingAmount:  shift.ClosingAmount,
			ExpectedAmount: shift.ExpectedAmount,
			Variance:       shift.Variance,
			PaymentAmount:  shift.PaymentAmount,
		})
	}

	report.Expenses.StaffPaymentsTotal = staffPaymentsTotal
	report.Expenses.Items = make([]models.ExpenseItem, 0, len(expenses))
	for _, expense := range expenses {
		report.Expenses.Items = append(report.Expenses.Items, models.ExpenseItem{
			ID:          expense.ID,
			ShiftID:     expense.ShiftID,
			ExpenseType: expense.ExpenseType,
			Amount:      expense.Amount,
			Status:      string(expense.Status),
			Description: utils.StringOrEmpty(expense.Description),
		})

		if expense.Status == models.ExpensePending {
			report.Expenses.PendingCount++
		}
		// Legacy staff-payment expense rows are already carried in
		// StaffPaymentsTotal; counting them here would double the money.
		if expense.Status == models.ExpenseApproved && expense.ExpenseType != models.ExpenseTypeStaffPayment {
			report.Expenses.Total += expense.Amount
		}
	}

	return report
}

// MergeDailyReports folds per-terminal reports left to right into one
// branch-level report. The merge is purely additive; per-terminal slices
// are kept in the breakdown so nothing is lost in the roll-up. Date and
// branch are taken from the first report.
func MergeDailyReports(reports []models.DailyReport) models.DailyReport {
	merged := models.DailyReport{GeneratedAt: time.Now()}
	if len(reports) == 0 {
		return merged
	}
	merged.Date = reports[0].Date
	merged.BranchID = reports[0].BranchID

	for _, r := range reports {
		merged.Shifts.Total += r.Shifts.Total
		merged.Shifts.Cashier += r.Shifts.Cashier
		merged.Shifts.Manager += r.Shifts.Manager
		merged.Shifts.Driver += r.Shifts.Driver
		merged.Shifts.Kitchen += r.Shifts.Kitchen
		merged.Shifts.Server += r.Shifts.Server

		merged.Sales.TotalOrders += r.Sales.TotalOrders
		merged.Sales.TotalSales += r.Sales.TotalSales
		merged.Sales.CashSales += r.Sales.CashSales
		merged.Sales.CardSales += r.Sales.CardSales
		merged.Sales.ByType.InStore.Orders += r.Sales.ByType.InStore.Orders
		merged.Sales.ByType.InStore.Sales += r.Sales.ByType.InStore.Sales
		merged.Sales.ByType.Delivery.Orders += r.Sales.ByType.Delivery.Orders
		merged.Sales.ByType.Delivery.Sales += r.Sales.ByType.Delivery.Sales

		merged.CashDrawer.Sessions += r.CashDrawer.Sessions
		merged.CashDrawer.OpeningTotal += r.CashDrawer.OpeningTotal
		merged.CashDrawer.ClosingTotal += r.CashDrawer.ClosingTotal
		merged.CashDrawer.ExpectedTotal += r.CashDrawer.ExpectedTotal
		merged.CashDrawer.VarianceTotal += r.CashDrawer.VarianceTotal
		merged.CashDrawer.DropsTotal += r.CashDrawer.DropsTotal
		merged.CashDrawer.DriverCashGiven += r.CashDrawer.DriverCashGiven
		merged.CashDrawer.DriverCashReturned += r.CashDrawer.DriverCashReturned

		merged.Expenses.Total += r.Expenses.Total
		merged.Expenses.PendingCount += r.Expenses.PendingCount
		merged.Expenses.StaffPaymentsTotal += r.Expenses.StaffPaymentsTotal
		merged.Expenses.Items = append(merged.Expenses.Items, r.Expenses.Items...)

		merged.DriverEarnings.Deliveries += r.DriverEarnings.Deliveries
		merged.DriverEarnings.CancelledDeliveries += r.DriverEarnings.CancelledDeliveries
		merged.DriverEarnings.DeliveryFees += r.DriverEarnings.DeliveryFees
		merged.DriverEarnings.Tips += r.DriverEarnings.Tips
		merged.DriverEarnings.CashCollected += r.DriverEarnings.CashCollected
		merged.DriverEarnings.CardAmount += r.DriverEarnings.CardAmount

		merged.StaffReports = append(merged.StaffReports, r.StaffReports...)

		if r.TerminalID != "" {
			merged.TerminalBreakdown = append(merged.TerminalBreakdown, models.TerminalBreakdown{
				TerminalID: r.TerminalID,
				Shifts:     r.Shifts,
				Sales:      r.Sales,
				CashDrawer: r.CashDrawer,
			})
		}
	}
	return merged
}

// ExportDailyReportPDF renders the Z-report as a printable PDF.
func (s *reportService) ExportDailyReportPDF(branchID, terminalID, date string) ([]byte, error) {
	report, err := s.GenerateDailyReport(branchID, terminalID, date)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	title := fmt.Sprintf("Daily Report - Branch %s - %s", report.BranchID, report.Date)
	if report.TerminalID != "" {
		title = fmt.Sprintf("Daily Report - Branch %s - Terminal %s - %s", report.BranchID, report.TerminalID, report.Date)
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	writeSection := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 10)
	}
	writeLine := func(label string, value string) {
		pdf.CellFormat(70, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, value, "", 1, "R", false, 0, "")
	}
	money := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	writeSection("Sales")
	writeLine("Total orders", fmt.Sprintf("%d", report.Sales.TotalOrders))
	writeLine("Total sales", money(report.Sales.TotalSales))
	writeLine("Cash sales", money(report.Sales.CashSales))
	writeLine("Card sales", money(report.Sales.CardSales))
	writeLine("In-store / delivery orders", fmt.Sprintf("%d / %d",
		report.Sales.ByType.InStore.Orders, report.Sales.ByType.Delivery.Orders))
	pdf.Ln(4)

	writeSection("Cash Drawer")
	writeLine("Sessions", fmt.Sprintf("%d", report.CashDrawer.Sessions))
	writeLine("Opening total", money(report.CashDrawer.OpeningTotal))
	writeLine("Closing total", money(report.CashDrawer.ClosingTotal))
	writeLine("Expected total", money(report.CashDrawer.ExpectedTotal))
	writeLine("Variance", money(report.CashDrawer.VarianceTotal))
	writeLine("Cash drops", money(report.CashDrawer.DropsTotal))
	writeLine("Driver cash given / returned", fmt.Sprintf("%s / %s",
		money(report.CashDrawer.DriverCashGiven), money(report.CashDrawer.DriverCashReturned)))
	pdf.Ln(4)

	writeSection("Expenses")
	writeLine("Approved total", money(report.Expenses.Total))
	writeLine("Pending count", fmt.Sprintf("%d", report.Expenses.PendingCount))
	writeLine("Staff payments", money(report.Expenses.StaffPaymentsTotal))
	pdf.Ln(4)

	writeSection("Driver Earnings")
	writeLine("Deliveries", fmt.Sprintf("%d", report.DriverEarnings.Deliveries))
	writeLine("Cancelled deliveries", fmt.Sprintf("%d", report.DriverEarnings.CancelledDeliveries))
	writeLine("Delivery fees", money(report.DriverEarnings.DeliveryFees))
	writeLine("Tips", money(report.DriverEarnings.Tips))
	writeLine("Cash collected", money(report.DriverEarnings.CashCollected))
	writeLine("Card amount", money(report.DriverEarnings.CardAmount))
	pdf.Ln(4)

	writeSection("Staff")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(40, 6, "Name", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Role", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Opening", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "Closing", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Variance", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, sr := range report.StaffReports {
		closing, variance := "-", "-"
		if sr.ClosingAmount != nil {
			closing = money(*sr.ClosingAmount)
		}
		if sr.Variance != nil {
			variance = money(*sr.Variance)
		}
		pdf.CellFormat(40, 6, sr.StaffName, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, string(sr.Role), "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, sr.Status, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, money(sr.OpeningAmount), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, closing, "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, variance, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("daily report: rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
