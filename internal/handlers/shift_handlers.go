package handlers

import (
	"errors"
	"net/http"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/services"
	"pos_terminal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShiftHandler holds the shift service.
type ShiftHandler struct {
	shiftService services.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(ss services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: ss}
}

// OpenShiftRequest is the payload for opening a shift.
type OpenShiftRequest struct {
	StaffID       int64   `json:"staff_id" binding:"required"`
	BranchID      string  `json:"branch_id" binding:"required"`
	TerminalID    string  `json:"terminal_id" binding:"required"`
	Role          string  `json:"role" binding:"required"`
	OpeningAmount float64 `json:"opening_amount"`
}

// CloseShiftRequest is the payload for closing a shift. ClosedBy is the
// staff member performing the close; it ends up in the drawer's
// reconciliation trail together with the optional notes.
type CloseShiftRequest struct {
	ClosingAmount float64  `json:"closing_amount"`
	ClosedBy      int64    `json:"closed_by" binding:"required"`
	Notes         *string  `json:"notes,omitempty"`
	PaymentAmount *float64 `json:"payment_amount,omitempty"`
}

// DriverEarningRequest is the payload for booking one delivery.
type DriverEarningRequest struct {
	OrderID       int64   `json:"order_id" binding:"required"`
	DeliveryFee   float64 `json:"delivery_fee"`
	TipAmount     float64 `json:"tip_amount"`
	CashCollected float64 `json:"cash_collected"`
	CardAmount    float64 `json:"card_amount"`
}

// CashDropRequest is the payload for dropping drawer cash to the safe.
type CashDropRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// ActiveDriverResponse decorates a driver shift with its derived
// hand-off state so terminals don't have to re-derive it from the
// transfer columns.
type ActiveDriverResponse struct {
	models.Shift
	TransferState models.TransferState `json:"transfer_state"`
}

// OpenShift handles POST /shifts.
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	var req OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	role, err := models.ParseStaffRole(req.Role)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid role.", err.Error()))
		return
	}

	shift := &models.Shift{
		StaffID:       req.StaffID,
		BranchID:      req.BranchID,
		TerminalID:    req.TerminalID,
		Role:          role,
		OpeningAmount: req.OpeningAmount,
	}

	opened, err := h.shiftService.OpenShift(shift)
	if err != nil {
		utils.LogError(err, "OpenShift: Error from shiftService.OpenShift")
		if errors.Is(err, services.ErrShiftAlreadyActive) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Staff member already has an active shift.", err.Error()))
		} else if errors.Is(err, services.ErrStaffNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found.", err.Error()))
		} else if errors.Is(err, services.ErrNoActiveCashier) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "No active cashier shift on this terminal.", err.Error()))
		} else if errors.Is(err, services.ErrShiftValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Shift validation failed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to open shift.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, opened)
}

// CloseShift handles POST /shifts/:id/close.
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	var req CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	closed, err := h.shiftService.CloseShift(shiftID, req.ClosingAmount, req.ClosedBy, req.Notes, req.PaymentAmount)
	if err != nil {
		utils.LogError(err, "CloseShift: Error from shiftService.CloseShift")
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else if errors.Is(err, services.ErrShiftAlreadyClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift is already closed.", err.Error()))
		} else if errors.Is(err, services.ErrShiftValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Shift validation failed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to close shift.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, closed)
}

// GetShift handles GET /shifts/:id.
func (h *ShiftHandler) GetShift(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	summary, err := h.shiftService.GetShiftSummary(shiftID)
	if err != nil {
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else {
			utils.LogError(err, "GetShift: Error from shiftService.GetShiftSummary")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch shift.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetActiveShift handles GET /shifts/active?staff_id=N.
func (h *ShiftHandler) GetActiveShift(c *gin.Context) {
	staffID, err := utils.StrToInt64(c.Query("staff_id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff_id format.", err.Error()))
		return
	}

	shift, err := h.shiftService.GetActiveShift(staffID)
	if err != nil {
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No shift found for this staff member.", err.Error()))
		} else {
			utils.LogError(err, "GetActiveShift: Error from shiftService.GetActiveShift")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch shift.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetShifts handles GET /shifts?branch_id=...&date=...&role=...
// with optional terminal_id narrowing.
func (h *ShiftHandler) GetShifts(c *gin.Context) {
	branchID := c.Query("branch_id")
	date := c.Query("date")
	if utils.IsEmpty(branchID) || utils.IsEmpty(date) {
		utils.RespondValidationFailed(c, "branch_id and date query parameters are required")
		return
	}

	var role *models.StaffRole
	if roleStr := c.Query("role"); roleStr != "" {
		parsed, err := models.ParseStaffRole(roleStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid role.", err.Error()))
			return
		}
		role = &parsed
	}

	shifts, err := h.shiftService.GetShifts(branchID, c.Query("terminal_id"), date, role)
	if err != nil {
		utils.LogError(err, "GetShifts: Error from shiftService.GetShifts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch shifts.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// GetActiveDrivers handles GET /shifts/drivers?branch_id=...&terminal_id=....
func (h *ShiftHandler) GetActiveDrivers(c *gin.Context) {
	branchID := c.Query("branch_id")
	terminalID := c.Query("terminal_id")
	if utils.IsEmpty(branchID) || utils.IsEmpty(terminalID) {
		utils.RespondValidationFailed(c, "branch_id and terminal_id query parameters are required")
		return
	}

	drivers, err := h.shiftService.GetActiveDrivers(branchID, terminalID)
	if err != nil {
		utils.LogError(err, "GetActiveDrivers: Error from shiftService.GetActiveDrivers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch drivers.", "Internal error"))
		return
	}

	response := make([]ActiveDriverResponse, 0, len(drivers))
	for i := range drivers {
		response = append(response, ActiveDriverResponse{
			Shift:         drivers[i],
			TransferState: drivers[i].TransferState(),
		})
	}
	c.JSON(http.StatusOK, response)
}

// RecordDriverEarning handles POST /shifts/:id/earnings.
func (h *ShiftHandler) RecordDriverEarning(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	var req DriverEarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	earning := &models.DriverEarning{
		ShiftID:       shiftID,
		OrderID:       req.OrderID,
		DeliveryFee:   req.DeliveryFee,
		TipAmount:     req.TipAmount,
		CashCollected: req.CashCollected,
		CardAmount:    req.CardAmount,
	}

	created, err := h.shiftService.RecordDriverEarning(earning)
	if err != nil {
		utils.LogError(err, "RecordDriverEarning: Error from shiftService.RecordDriverEarning")
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else if errors.Is(err, services.ErrShiftAlreadyClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift is already closed.", err.Error()))
		} else if errors.Is(err, services.ErrShiftValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Earning validation failed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record earning.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RecordCashDrop handles POST /shifts/:id/drops.
func (h *ShiftHandler) RecordCashDrop(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	var req CashDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	drawer, err := h.shiftService.RecordCashDrop(shiftID, req.Amount)
	if err != nil {
		utils.LogError(err, "RecordCashDrop: Error from shiftService.RecordCashDrop")
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else if errors.Is(err, services.ErrShiftAlreadyClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift is already closed.", err.Error()))
		} else if errors.Is(err, services.ErrShiftValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cash drop validation failed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record cash drop.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, drawer)
}
