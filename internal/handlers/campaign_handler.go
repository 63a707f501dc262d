package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"
	"github.com/eventra/event-registration-backend/internal/services/excel"
	"github.com/eventra/event-registration-backend/internal/services/mailer"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	dispatchService *services.CampaignDispatchService
	rabbitMQService *services.RabbitMQService
	excelService    *excel.Service
}

func NewCampaignHandler(
	db *gorm.DB,
	dispatchService *services.CampaignDispatchService,
	rabbitMQService *services.RabbitMQService,
	excelService *excel.Service,
) *CampaignHandler {
	campaignRepo := repository.NewEmailCampaignRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	eventRepo := repository.NewEventRepository(db)
	logRepo := repository.NewEmailLogRepository(db)

	return &CampaignHandler{
		campaignService: services.NewCampaignService(campaignRepo, templateRepo, eventRepo, logRepo),
		dispatchService: dispatchService,
		rabbitMQService: rabbitMQService,
		excelService:    excelService,
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description Create a new draft email campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCampaignRequest true "Create campaign request"
// @Success 201 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.campaignService.CreateCampaign(userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetCampaigns godoc
// @Summary Get campaigns
// @Description Get all campaigns, optionally filtered by event
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param event_id query string false "Filter by event ID"
// @Success 200 {array} models.CampaignResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	var campaigns []*models.CampaignResponse
	var err error

	if eventID := c.Query("event_id"); eventID != "" {
		campaigns, err = h.campaignService.GetCampaignsByEvent(eventID)
	} else {
		campaigns, err = h.campaignService.GetAllCampaigns()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaigns", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// GetCampaign godoc
// @Summary Get a campaign
// @Description Get a campaign with its live counters by ID
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignService.GetCampaignByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign godoc
// @Summary Delete a campaign
// @Description Delete a draft campaign by ID
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if err := h.campaignService.DeleteCampaign(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "draft") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
}

// SendCampaign godoc
// @Summary Send a campaign
// @Description Start dispatching a draft campaign to its resolved recipients
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/send [post]
func (h *CampaignHandler) SendCampaign(c *gin.Context) {
	campaignID := c.Param("id")

	campaign, err := h.campaignService.GetCampaignByID(campaignID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if campaign.Status != models.CampaignStatusDraft {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Only draft campaigns can be sent",
			"status": campaign.Status,
		})
		return
	}

	// Prefer the queue so dispatch survives restarts. When the broker is
	// down, fall back to an in-process goroutine.
	if h.rabbitMQService != nil {
		if err := h.rabbitMQService.PublishDispatchJob(services.DispatchJob{CampaignID: campaignID}); err == nil {
			c.JSON(http.StatusAccepted, gin.H{"message": "Campaign dispatch queued", "campaign_id": campaignID})
			return
		}
		logrus.Warnf("Failed to queue campaign %s, falling back to in-process dispatch", campaignID)
	}

	go func() {
		if err := h.dispatchService.Dispatch(context.Background(), campaignID); err != nil {
			logrus.WithField("campaign_id", campaignID).Errorf("Campaign dispatch failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Campaign dispatch started", "campaign_id": campaignID})
}

// CancelCampaign godoc
// @Summary Cancel a campaign
// @Description Stop scheduling of not-yet-started recipients of a sending campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/cancel [post]
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	if err := h.dispatchService.Cancel(c.Param("id")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign cancelled"})
}

// GetCampaignLogs godoc
// @Summary Get campaign delivery logs
// @Description Get per-recipient delivery records of a campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {array} models.EmailLog
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/logs [get]
func (h *CampaignHandler) GetCampaignLogs(c *gin.Context) {
	logs, err := h.campaignService.GetCampaignLogs(c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaign logs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// ExportCampaignReport godoc
// @Summary Export a campaign delivery report
// @Description Export the per-recipient delivery report of a campaign as an Excel file
// @Tags campaigns
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/report [get]
func (h *CampaignHandler) ExportCampaignReport(c *gin.Context) {
	result, err := h.excelService.ExportCampaignReport(c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report", "details": err.Error()})
		return
	}

	c.FileAttachment(result.FilePath, result.Filename)
}

// mapSendError translates dispatcher errors into HTTP statuses shared by the
// campaign and one-off send endpoints.
func mapSendError(c *gin.Context, err error) {
	var confErr *mailer.ConfigurationError
	var valErr *mailer.ValidationError
	switch {
	case errors.As(err, &confErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "not found"):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email", "details": err.Error()})
	}
}
