package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"
	"github.com/eventra/event-registration-backend/internal/services/mailer"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmailSettingHandler struct {
	settingService *services.EmailSettingService
}

func NewEmailSettingHandler(db *gorm.DB) *EmailSettingHandler {
	settingRepo := repository.NewEmailSettingRepository(db)
	return &EmailSettingHandler{
		settingService: services.NewEmailSettingService(settingRepo),
	}
}

// CreateSetting godoc
// @Summary Create an email provider configuration
// @Description Create a new SMTP, SendGrid or Mailgun configuration
// @Tags email-settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateEmailSettingRequest true "Create setting request"
// @Success 201 {object} models.EmailSetting
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/email-settings [post]
func (h *EmailSettingHandler) CreateSetting(c *gin.Context) {
	var req models.CreateEmailSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	setting, err := h.settingService.CreateSetting(&req)
	if err != nil {
		var confErr *mailer.ConfigurationError
		if errors.As(err, &confErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create email setting", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, setting)
}

// GetSettings godoc
// @Summary Get all provider configurations
// @Description Get all email provider configurations
// @Tags email-settings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.EmailSetting
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/email-settings [get]
func (h *EmailSettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingService.GetSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get email settings", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// GetActiveSetting godoc
// @Summary Get the active configuration
// @Description Get the single active email provider configuration
// @Tags email-settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.EmailSetting
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/email-settings/active [get]
func (h *EmailSettingHandler) GetActiveSetting(c *gin.Context) {
	setting, err := h.settingService.GetActiveSetting()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active setting", "details": err.Error()})
		return
	}
	if setting == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active email setting"})
		return
	}

	c.JSON(http.StatusOK, setting)
}

// ActivateSetting godoc
// @Summary Activate a configuration
// @Description Make the given configuration the single active one
// @Tags email-settings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Setting ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/email-settings/{id}/activate [post]
func (h *EmailSettingHandler) ActivateSetting(c *gin.Context) {
	if err := h.settingService.ActivateSetting(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate email setting", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email setting activated"})
}

// DeleteSetting godoc
// @Summary Delete a configuration
// @Description Delete a non-active email provider configuration
// @Tags email-settings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Setting ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/email-settings/{id} [delete]
func (h *EmailSettingHandler) DeleteSetting(c *gin.Context) {
	if err := h.settingService.DeleteSetting(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "active") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete email setting", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email setting deleted"})
}
