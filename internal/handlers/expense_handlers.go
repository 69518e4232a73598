package handlers

import (
	"errors"
	"net/http"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/services"
	"pos_terminal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler holds the expense service.
type ExpenseHandler struct {
	expenseService services.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(es services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: es}
}

// CreateExpenseRequest is the payload for recording an expense. Status
// is optional: empty means approved; "pending" defers the drawer update
// until an explicit approval.
type CreateExpenseRequest struct {
	ShiftID     int64   `json:"shift_id" binding:"required"`
	ExpenseType string  `json:"expense_type" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

// StaffPaymentRequest is the payload for a direct drawer-to-staff payment.
type StaffPaymentRequest struct {
	BranchID      string  `json:"branch_id" binding:"required"`
	TerminalID    string  `json:"terminal_id" binding:"required"`
	PaidToStaffID int64   `json:"paid_to_staff_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	PaymentType   string  `json:"payment_type" binding:"required"`
	Notes         string  `json:"notes"`
}

// CreateExpense handles POST /expenses.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	expense := &models.Expense{
		ShiftID:     req.ShiftID,
		ExpenseType: req.ExpenseType,
		Amount:      req.Amount,
		Description: utils.NewNullString(req.Description),
		Status:      models.ExpenseStatus(req.Status),
	}

	created, err := h.expenseService.RecordExpense(expense)
	if err != nil {
		utils.LogError(err, "CreateExpense: Error from expenseService.RecordExpense")
		if errors.Is(err, services.ErrInvalidAmount) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Amount must be positive.", err.Error()))
		} else if errors.Is(err, services.ErrExpenseStatusConflict) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Status must be approved or pending.", err.Error()))
		} else if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else if errors.Is(err, services.ErrShiftAlreadyClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift is already closed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record expense.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ApproveExpense handles POST /expenses/:id/approve.
func (h *ExpenseHandler) ApproveExpense(c *gin.Context) {
	h.resolveExpense(c, h.expenseService.ApproveExpense)
}

// RejectExpense handles POST /expenses/:id/reject.
func (h *ExpenseHandler) RejectExpense(c *gin.Context) {
	h.resolveExpense(c, h.expenseService.RejectExpense)
}

func (h *ExpenseHandler) resolveExpense(c *gin.Context, resolve func(int64) (*models.Expense, error)) {
	expenseID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid expense ID format.", err.Error()))
		return
	}

	expense, err := resolve(expenseID)
	if err != nil {
		utils.LogError(err, "ResolveExpense: Error resolving expense")
		if errors.Is(err, services.ErrExpenseNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Expense not found.", err.Error()))
		} else if errors.Is(err, services.ErrExpenseStatusConflict) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Expense is not pending.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve expense.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, expense)
}

// GetExpenses handles GET /expenses?shift_id=N or ?branch_id=...&date=....
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	if shiftIDStr := c.Query("shift_id"); shiftIDStr != "" {
		shiftID, err := utils.StrToInt64(shiftIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift_id format.", err.Error()))
			return
		}
		expenses, err := h.expenseService.ListExpensesByShift(shiftID)
		if err != nil {
			utils.LogError(err, "GetExpenses: Error from expenseService.ListExpensesByShift")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch expenses.", "Internal error"))
			return
		}
		c.JSON(http.StatusOK, expenses)
		return
	}

	branchID := c.Query("branch_id")
	date := c.Query("date")
	if utils.IsEmpty(branchID) || utils.IsEmpty(date) {
		utils.RespondValidationFailed(c, "either shift_id or branch_id and date query parameters are required")
		return
	}
	expenses, err := h.expenseService.ListExpensesByDate(branchID, c.Query("terminal_id"), date)
	if err != nil {
		utils.LogError(err, "GetExpenses: Error from expenseService.ListExpensesByDate")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch expenses.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// CreateStaffPayment handles POST /staff-payments.
func (h *ExpenseHandler) CreateStaffPayment(c *gin.Context) {
	var req StaffPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	paymentType, err := models.ParseStaffPaymentType(req.PaymentType)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment type.", err.Error()))
		return
	}

	payment := &models.StaffPayment{
		PaidToStaffID: req.PaidToStaffID,
		Amount:        req.Amount,
		PaymentType:   paymentType,
		Notes:         utils.NewNullString(req.Notes),
	}

	created, err := h.expenseService.RecordStaffPayment(req.BranchID, req.TerminalID, payment)
	if err != nil {
		utils.LogError(err, "CreateStaffPayment: Error from expenseService.RecordStaffPayment")
		if errors.Is(err, services.ErrInvalidAmount) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Amount must be positive.", err.Error()))
		} else if errors.Is(err, services.ErrCashierNotActive) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "No active cashier drawer for this terminal.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record staff payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetStaffPayments handles GET /staff-payments?cashier_shift_id=N.
func (h *ExpenseHandler) GetStaffPayments(c *gin.Context) {
	cashierShiftID, err := utils.StrToInt64(c.Query("cashier_shift_id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid cashier_shift_id format.", err.Error()))
		return
	}

	payments, err := h.expenseService.ListStaffPayments(cashierShiftID)
	if err != nil {
		utils.LogError(err, "GetStaffPayments: Error from expenseService.ListStaffPayments")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch staff payments.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, payments)
}
