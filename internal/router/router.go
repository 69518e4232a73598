package router

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"pos_terminal_backend/internal/handlers"
	"pos_terminal_backend/internal/middleware"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/internal/services"
)

// Setup wires repositories, services and handlers and mounts the routes.
func Setup(engine *gin.Engine, db *sql.DB, driverCacheTTL time.Duration) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	drawerRepo := repositories.NewDrawerRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)
	earningRepo := repositories.NewDriverEarningRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	syncRepo := repositories.NewSyncRepository(db)

	// Services
	ledger := services.NewDrawerLedger(drawerRepo, syncRepo)
	transfer := services.NewTransferCoordinator(shiftRepo, earningRepo, ledger, syncRepo, driverCacheTTL)
	authService := services.NewAuthService(db, authRepo)
	shiftService := services.NewShiftService(db, shiftRepo, expenseRepo, earningRepo, orderRepo, ledger, transfer, syncRepo)
	expenseService := services.NewExpenseService(db, expenseRepo, shiftRepo, ledger, syncRepo)
	reportService := services.NewReportService(shiftRepo, drawerRepo, expenseRepo, earningRepo, orderRepo)
	eodService := services.NewEODService(db, shiftRepo, drawerRepo, expenseRepo, earningRepo, orderRepo, tableRepo, syncRepo)
	orderService := services.NewOrderService(orderRepo, tableRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	reportHandler := handlers.NewReportHandler(reportService)
	eodHandler := handlers.NewEODHandler(eodService)
	orderHandler := handlers.NewOrderHandler(orderService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupShiftRoutes(authenticated, shiftHandler)
		SetupExpenseRoutes(authenticated, expenseHandler)
		SetupReportRoutes(authenticated, reportHandler)
		SetupEODRoutes(authenticated, eodHandler)
		SetupOrderRoutes(authenticated, orderHandler)
	}
}
