package handlers

import (
	"net/http"
	"strings"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"
	"github.com/eventra/event-registration-backend/internal/services/excel"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ParticipantHandler struct {
	participantService *services.ParticipantService
	excelService       *excel.Service
}

func NewParticipantHandler(db *gorm.DB, excelService *excel.Service) *ParticipantHandler {
	participantRepo := repository.NewParticipantRepository(db)
	eventRepo := repository.NewEventRepository(db)

	return &ParticipantHandler{
		participantService: services.NewParticipantService(participantRepo, eventRepo),
		excelService:       excelService,
	}
}

// RegisterParticipant godoc
// @Summary Register a participant
// @Description Register a new participant for an event
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body models.CreateParticipantRequest true "Register participant request"
// @Success 201 {object} models.Participant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/events/{id}/participants [post]
func (h *ParticipantHandler) RegisterParticipant(c *gin.Context) {
	var req models.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	participant, err := h.participantService.RegisterParticipant(c.Param("id"), &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register participant", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// GetParticipants godoc
// @Summary Get event participants
// @Description Get all participants registered for an event
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {array} models.Participant
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events/{id}/participants [get]
func (h *ParticipantHandler) GetParticipants(c *gin.Context) {
	participants, err := h.participantService.GetParticipantsByEvent(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get participants", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, participants)
}

// GetParticipant godoc
// @Summary Get a participant
// @Description Get a participant by ID
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Participant ID"
// @Success 200 {object} models.Participant
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/participants/{id} [get]
func (h *ParticipantHandler) GetParticipant(c *gin.Context) {
	participant, err := h.participantService.GetParticipantByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, participant)
}

// UpdateParticipant godoc
// @Summary Update a participant
// @Description Update a participant by ID
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Participant ID"
// @Param request body models.UpdateParticipantRequest true "Update participant request"
// @Success 200 {object} models.Participant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/participants/{id} [put]
func (h *ParticipantHandler) UpdateParticipant(c *gin.Context) {
	var req models.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	participant, err := h.participantService.UpdateParticipant(c.Param("id"), &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, participant)
}

// DeleteParticipant godoc
// @Summary Delete a participant
// @Description Delete a participant by ID
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Participant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/participants/{id} [delete]
func (h *ParticipantHandler) DeleteParticipant(c *gin.Context) {
	if err := h.participantService.DeleteParticipant(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete participant", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Participant deleted successfully"})
}

// ImportParticipants godoc
// @Summary Import participants from Excel
// @Description Import participants for an event from an uploaded .xlsx file
// @Tags participants
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param file formData file true "Excel file with name, email, phone, company, job_title columns"
// @Success 200 {object} excel.ImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/events/{id}/participants/import [post]
func (h *ParticipantHandler) ImportParticipants(c *gin.Context) {
	eventID := c.Param("id")

	// Reject unknown events before parsing the upload
	if _, err := h.participantService.GetEventByID(eventID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.excelService.ImportParticipants(eventID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
