package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventra/event-registration-backend/internal/database"
	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/router"
	"github.com/eventra/event-registration-backend/internal/services"
	"github.com/eventra/event-registration-backend/internal/services/auth"
	"github.com/eventra/event-registration-backend/internal/services/excel"
	"github.com/eventra/event-registration-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	// Import Swagger docs
	_ "github.com/eventra/event-registration-backend/docs"
)

// @title Event Registration Backend API
// @version 1.0
// @description Event registration and campaign email dispatch API with JWT authentication

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	eventRepo := repository.NewEventRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	settingRepo := repository.NewEmailSettingRepository(db)
	campaignRepo := repository.NewEmailCampaignRepository(db)
	logRepo := repository.NewEmailLogRepository(db)

	// Services
	authService := auth.NewAuthService(userRepo)
	recipientService := services.NewRecipientService(participantRepo)
	attachmentService := services.NewAttachmentService()
	dispatchService := services.NewCampaignDispatchService(
		campaignRepo,
		templateRepo,
		eventRepo,
		settingRepo,
		participantRepo,
		recipientService,
		attachmentService,
		logRepo,
	)
	excelService := excel.NewExcelService(participantRepo, campaignRepo, logRepo, getEnv("EXPORTS_DIR", "exports"))

	// Initialize RabbitMQ and the dispatch consumer. Campaign sends fall back
	// to in-process dispatch when the broker is unavailable.
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		defer rabbitMQService.Close()
		if err := rabbitMQService.StartDispatchConsumer(dispatchService); err != nil {
			logrus.Warnf("Failed to start dispatch consumer: %v", err)
		}
	}

	// Create admin user if not exists
	if err := authService.EnsureAdminUser(); err != nil {
		logrus.Warnf("Failed to create admin user: %v", err)
	}

	// Initialize router
	r := router.SetupRouter(db, authService, dispatchService, rabbitMQService, excelService)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
