package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/eventra/event-registration-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// trackingPixel is a 1x1 transparent GIF
var trackingPixel, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

type TrackingHandler struct {
	logService *services.EmailLogService
}

func NewTrackingHandler(logService *services.EmailLogService) *TrackingHandler {
	return &TrackingHandler{logService: logService}
}

// TrackOpen godoc
// @Summary Open-tracking pixel
// @Description Records an email open and returns a 1x1 pixel. Always responds 200 regardless of lookup outcome so broken tracking never breaks image rendering in the recipient's mail client.
// @Tags tracking
// @Produce image/gif
// @Param id query string false "Delivery record ID"
// @Param pid query string false "Participant ID"
// @Success 200 {file} file
// @Router /api/v1/track/open [get]
func (h *TrackingHandler) TrackOpen(c *gin.Context) {
	h.logService.RecordOpen(c.Query("id"), c.Query("pid"))

	// Mail clients cache images aggressively; without no-store a second
	// open would never reach us.
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/gif", trackingPixel)
}
