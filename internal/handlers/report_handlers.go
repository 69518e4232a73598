package handlers

import (
	"fmt"
	"net/http"

	"pos_terminal_backend/internal/services"
	"pos_terminal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func reportParams(c *gin.Context) (branchID, date string, ok bool) {
	branchID = c.Query("branch_id")
	date = c.Query("date")
	if utils.IsEmpty(branchID) || utils.IsEmpty(date) {
		utils.RespondValidationFailed(c, "branch_id and date query parameters are required")
		return "", "", false
	}
	return branchID, date, true
}

// GetDailyReport handles GET /reports/daily?branch_id=...&date=....
// An optional terminal_id narrows every figure to that terminal.
func (h *ReportHandler) GetDailyReport(c *gin.Context) {
	branchID, date, ok := reportParams(c)
	if !ok {
		return
	}

	report, err := h.reportService.GenerateDailyReport(branchID, c.Query("terminal_id"), date)
	if err != nil {
		utils.LogError(err, "GetDailyReport: Error from reportService.GenerateDailyReport")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate report.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetBranchDailyReport handles GET /reports/daily/consolidated. It rolls
// every terminal that traded on the date into one branch report with a
// per-terminal breakdown.
func (h *ReportHandler) GetBranchDailyReport(c *gin.Context) {
	branchID, date, ok := reportParams(c)
	if !ok {
		return
	}

	report, err := h.reportService.GenerateBranchDailyReport(branchID, date)
	if err != nil {
		utils.LogError(err, "GetBranchDailyReport: Error from reportService.GenerateBranchDailyReport")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate report.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetDailyReportPDF handles GET /reports/daily/pdf?branch_id=...&date=....
func (h *ReportHandler) GetDailyReportPDF(c *gin.Context) {
	branchID, date, ok := reportParams(c)
	if !ok {
		return
	}

	pdfBytes, err := h.reportService.ExportDailyReportPDF(branchID, c.Query("terminal_id"), date)
	if err != nil {
		utils.LogError(err, "GetDailyReportPDF: Error from reportService.ExportDailyReportPDF")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to render report.", "Internal error"))
		return
	}

	fileName := fmt.Sprintf("daily-report-%s-%s.pdf", branchID, date)
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
