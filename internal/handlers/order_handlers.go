package handlers

import (
	"errors"
	"net/http"

	"pos_terminal_backend/internal/services"
	"pos_terminal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order read service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		} else {
			utils.LogError(err, "GetOrder: Error from orderService.GetOrderByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders handles GET /orders?branch_id=...&date=...&status=....
func (h *OrderHandler) GetOrders(c *gin.Context) {
	branchID := c.Query("branch_id")
	date := c.Query("date")
	if utils.IsEmpty(branchID) || utils.IsEmpty(date) {
		utils.RespondValidationFailed(c, "branch_id and date query parameters are required")
		return
	}

	var status *string
	if statusStr := c.Query("status"); statusStr != "" {
		status = &statusStr
	}

	orders, err := h.orderService.ListOrders(branchID, date, status)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.ListOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOpenTableSessions handles GET /tables/sessions?branch_id=....
func (h *OrderHandler) GetOpenTableSessions(c *gin.Context) {
	branchID := c.Query("branch_id")
	if utils.IsEmpty(branchID) {
		utils.RespondValidationFailed(c, "branch_id query parameter is required")
		return
	}

	sessions, err := h.orderService.ListOpenTableSessions(branchID)
	if err != nil {
		utils.LogError(err, "GetOpenTableSessions: Error from orderService.ListOpenTableSessions")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch table sessions.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, sessions)
}
