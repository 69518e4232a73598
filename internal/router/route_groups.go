package router

import (
	"github.com/gin-gonic/gin"

	"pos_terminal_backend/internal/handlers"
	"pos_terminal_backend/internal/middleware"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.Profile)
			authRequiredRoutes.POST("/logout", authHandler.Logout)
		}
	}
}

// SetupShiftRoutes sets up the shift registry routes.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, shiftHandler *handlers.ShiftHandler) {
	shiftRoutes := authenticatedGroup.Group("/shifts")
	shiftRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager", "Staff"))
	{
		shiftRoutes.POST("", shiftHandler.OpenShift)
		shiftRoutes.GET("", shiftHandler.GetShifts)
		shiftRoutes.GET("/active", shiftHandler.GetActiveShift)
		shiftRoutes.GET("/drivers", shiftHandler.GetActiveDrivers)
		shiftRoutes.GET("/:id", shiftHandler.GetShift)
		shiftRoutes.POST("/:id/close", shiftHandler.CloseShift)
		shiftRoutes.POST("/:id/earnings", shiftHandler.RecordDriverEarning)
		shiftRoutes.POST("/:id/drops", shiftHandler.RecordCashDrop)
	}
}

// SetupExpenseRoutes sets up the expense and staff payment routes.
func SetupExpenseRoutes(authenticatedGroup *gin.RouterGroup, expenseHandler *handlers.ExpenseHandler) {
	expenseRoutes := authenticatedGroup.Group("/expenses")
	expenseRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager", "Staff"))
	{
		expenseRoutes.POST("", expenseHandler.CreateExpense)
		expenseRoutes.GET("", expenseHandler.GetExpenses)
	}

	// Approval is a manager decision.
	approvalRoutes := authenticatedGroup.Group("/expenses")
	approvalRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager"))
	{
		approvalRoutes.POST("/:id/approve", expenseHandler.ApproveExpense)
		approvalRoutes.POST("/:id/reject", expenseHandler.RejectExpense)
	}

	paymentRoutes := authenticatedGroup.Group("/staff-payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager", "Staff"))
	{
		paymentRoutes.POST("", expenseHandler.CreateStaffPayment)
		paymentRoutes.GET("", expenseHandler.GetStaffPayments)
	}
}

// SetupReportRoutes sets up the daily report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager"))
	{
		reportRoutes.GET("/daily", reportHandler.GetDailyReport)
		reportRoutes.GET("/daily/consolidated", reportHandler.GetBranchDailyReport)
		reportRoutes.GET("/daily/pdf", reportHandler.GetDailyReportPDF)
	}
}

// SetupEODRoutes sets up the end-of-day finalizer routes.
func SetupEODRoutes(authenticatedGroup *gin.RouterGroup, eodHandler *handlers.EODHandler) {
	eodRoutes := authenticatedGroup.Group("/eod")
	eodRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager"))
	{
		eodRoutes.GET("/check", eodHandler.CanFinalize)
		eodRoutes.POST("/finalize", eodHandler.FinalizeDay)
	}
}

// SetupOrderRoutes sets up the order and table session read routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager", "Staff"))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrder)
	}

	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager", "Staff"))
	{
		tableRoutes.GET("/sessions", orderHandler.GetOpenTableSessions)
	}
}
