package router

import (
	"time"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/handlers"
	"github.com/eventra/event-registration-backend/internal/middleware"
	"github.com/eventra/event-registration-backend/internal/services"
	"github.com/eventra/event-registration-backend/internal/services/auth"
	"github.com/eventra/event-registration-backend/internal/services/excel"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with all API routes
func SetupRouter(
	db *gorm.DB,
	authService *auth.AuthService,
	dispatchService *services.CampaignDispatchService,
	rabbitMQService *services.RabbitMQService,
	excelService *excel.Service,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(authService)

	logService := services.NewEmailLogService(repository.NewEmailLogRepository(db))

	authHandler := handlers.NewAuthHandler(db, authService)
	eventHandler := handlers.NewEventHandler(db)
	participantHandler := handlers.NewParticipantHandler(db, excelService)
	templateHandler := handlers.NewEmailTemplateHandler(db)
	settingHandler := handlers.NewEmailSettingHandler(db)
	campaignHandler := handlers.NewCampaignHandler(db, dispatchService, rabbitMQService, excelService)
	emailHandler := handlers.NewEmailHandler(dispatchService)
	trackingHandler := handlers.NewTrackingHandler(logService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Tracking pixel, fetched by recipient mail clients without auth
		api.GET("/track/open", trackingHandler.TrackOpen)

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			authProtected := protected.Group("/auth")
			{
				authProtected.GET("/me", authHandler.Me)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			// Event routes
			events := protected.Group("/events")
			{
				events.POST("", eventHandler.CreateEvent)
				events.GET("", eventHandler.GetEvents)
				events.GET("/:id", eventHandler.GetEvent)
				events.PUT("/:id", eventHandler.UpdateEvent)
				events.DELETE("/:id", eventHandler.DeleteEvent)

				events.POST("/:id/participants", participantHandler.RegisterParticipant)
				events.GET("/:id/participants", participantHandler.GetParticipants)
				events.POST("/:id/participants/import", participantHandler.ImportParticipants)
			}

			// Participant routes
			participants := protected.Group("/participants")
			{
				participants.GET("/:id", participantHandler.GetParticipant)
				participants.PUT("/:id", participantHandler.UpdateParticipant)
				participants.DELETE("/:id", participantHandler.DeleteParticipant)
			}

			// Email template routes
			templates := protected.Group("/email-templates")
			{
				templates.POST("", templateHandler.CreateTemplate)
				templates.GET("", templateHandler.GetTemplates)
				templates.GET("/:id", templateHandler.GetTemplate)
				templates.PUT("/:id", templateHandler.UpdateTemplate)
				templates.DELETE("/:id", templateHandler.DeleteTemplate)
			}

			// Email provider configuration routes
			settings := protected.Group("/email-settings")
			{
				settings.POST("", settingHandler.CreateSetting)
				settings.GET("", settingHandler.GetSettings)
				settings.GET("/active", settingHandler.GetActiveSetting)
				settings.POST("/:id/activate", settingHandler.ActivateSetting)
				settings.DELETE("/:id", settingHandler.DeleteSetting)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/send", campaignHandler.SendCampaign)
				campaigns.POST("/:id/cancel", campaignHandler.CancelCampaign)
				campaigns.GET("/:id/logs", campaignHandler.GetCampaignLogs)
				campaigns.GET("/:id/report", campaignHandler.ExportCampaignReport)
			}

			// One-off email routes
			emails := protected.Group("/emails")
			{
				emails.POST("/send", emailHandler.SendEmail)
			}
		}
	}

	return r
}
