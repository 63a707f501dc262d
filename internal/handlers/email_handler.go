package handlers

import (
	"net/http"

	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	dispatchService *services.CampaignDispatchService
}

func NewEmailHandler(dispatchService *services.CampaignDispatchService) *EmailHandler {
	return &EmailHandler{dispatchService: dispatchService}
}

// SendEmail godoc
// @Summary Send a one-off email
// @Description Send a single email outside any campaign, optionally using a template and participant context
// @Tags emails
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendEmailRequest true "Send email request"
// @Success 200 {object} models.EmailLog
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/emails/send [post]
func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req models.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	log, err := h.dispatchService.SendOne(c.Request.Context(), &req)
	if err != nil {
		if log != nil {
			// The failure is recorded; surface both the record and the error
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "log": log})
			return
		}
		mapSendError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}
