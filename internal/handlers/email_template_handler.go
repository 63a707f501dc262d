package handlers

import (
	"net/http"
	"strings"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmailTemplateHandler struct {
	templateService *services.EmailTemplateService
}

func NewEmailTemplateHandler(db *gorm.DB) *EmailTemplateHandler {
	templateRepo := repository.NewEmailTemplateRepository(db)
	return &EmailTemplateHandler{
		templateService: services.NewEmailTemplateService(templateRepo),
	}
}

// CreateTemplate godoc
// @Summary Create an email template
// @Description Create a new email template with optional attachment descriptors
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateEmailTemplateRequest true "Create template request"
// @Success 201 {object} models.EmailTemplate
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/email-templates [post]
func (h *EmailTemplateHandler) CreateTemplate(c *gin.Context) {
	var req models.CreateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	template, err := h.templateService.CreateTemplate(&req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid attachment descriptor") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplates godoc
// @Summary Get all templates
// @Description Get all email templates
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.EmailTemplate
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/email-templates [get]
func (h *EmailTemplateHandler) GetTemplates(c *gin.Context) {
	templates, err := h.templateService.GetTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get templates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetTemplate godoc
// @Summary Get a template
// @Description Get an email template by ID
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} models.EmailTemplate
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/email-templates/{id} [get]
func (h *EmailTemplateHandler) GetTemplate(c *gin.Context) {
	template, err := h.templateService.GetTemplateByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, template)
}

// UpdateTemplate godoc
// @Summary Update a template
// @Description Update an email template by ID
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body models.UpdateEmailTemplateRequest true "Update template request"
// @Success 200 {object} models.EmailTemplate
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/email-templates/{id} [put]
func (h *EmailTemplateHandler) UpdateTemplate(c *gin.Context) {
	var req models.UpdateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	template, err := h.templateService.UpdateTemplate(c.Param("id"), &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "invalid attachment descriptor") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate godoc
// @Summary Delete a template
// @Description Delete an email template by ID
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/email-templates/{id} [delete]
func (h *EmailTemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templateService.DeleteTemplate(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
