package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pos_terminal_backend/internal/database"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/internal/router"
	"pos_terminal_backend/internal/syncqueue"
	"pos_terminal_backend/pkg/utils"
)

func main() {
	utils.InitLogger()
	utils.InitJWT(utils.Getenv("JWT_SECRET", "dev-only-insecure-secret"))

	// Database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "pos_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "pos_password")
	dbName := utils.Getenv("DB_NAME", "pos_terminal_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "db/schema.sql")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "name": dbName})

	engine := gin.Default()
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	dbConn := database.GetDB()

	driverCacheTTL := utils.GetenvSeconds("DRIVER_CACHE_TTL_SECONDS", 30*time.Second)
	router.Setup(engine, dbConn, driverCacheTTL)

	// Outbound sync publisher drains the change queue in the background;
	// the HTTP surface never waits on the broker.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kafkaBroker := utils.Getenv("KAFKA_BROKER", "localhost:9092")
	kafkaTopic := utils.Getenv("KAFKA_SYNC_TOPIC", "pos-sync")
	syncInterval := utils.GetenvSeconds("SYNC_INTERVAL_SECONDS", 5*time.Second)
	syncBatchSize := utils.GetenvInt("SYNC_BATCH_SIZE", 100)

	publisher := syncqueue.NewPublisher(repositories.NewSyncRepository(dbConn), kafkaBroker, kafkaTopic, syncInterval, syncBatchSize)
	go publisher.Run(ctx)
	utils.LogInfo("Sync publisher started", map[string]interface{}{"broker": kafkaBroker, "topic": kafkaTopic})

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
