package handlers

import (
	"errors"
	"net/http"

	"pos_terminal_backend/internal/services"
	"pos_terminal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EODHandler holds the end-of-day service.
type EODHandler struct {
	eodService services.EODService
}

// NewEODHandler creates a new EODHandler.
func NewEODHandler(es services.EODService) *EODHandler {
	return &EODHandler{eodService: es}
}

// FinalizeDayRequest is the payload for closing out a business day.
type FinalizeDayRequest struct {
	BranchID string `json:"branch_id" binding:"required"`
	Date     string `json:"date" binding:"required"` // YYYY-MM-DD
}

// CanFinalize handles GET /eod/check?branch_id=...&date=....
func (h *EODHandler) CanFinalize(c *gin.Context) {
	branchID := c.Query("branch_id")
	date := c.Query("date")
	if utils.IsEmpty(branchID) || utils.IsEmpty(date) {
		utils.RespondValidationFailed(c, "branch_id and date query parameters are required")
		return
	}

	check, err := h.eodService.CanFinalize(branchID, date)
	if err != nil {
		utils.LogError(err, "CanFinalize: Error from eodService.CanFinalize")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to check preconditions.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, check)
}

// FinalizeDay handles POST /eod/finalize.
func (h *EODHandler) FinalizeDay(c *gin.Context) {
	var req FinalizeDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.eodService.FinalizeDay(req.BranchID, req.Date)
	if err != nil {
		if errors.Is(err, services.ErrDayNotFinalized) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodePreconditionFailed, "Day cannot be finalized.", err.Error()))
			return
		}
		utils.LogError(err, "FinalizeDay: Error from eodService.FinalizeDay")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to finalize day.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, result)
}
