package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventra/event-registration-backend/internal/models"
)

// EmailLogStore is the slice of the delivery-record repository this service
// needs.
type EmailLogStore interface {
	Create(log *models.EmailLog) error
	GetByID(id string) (*models.EmailLog, error)
	GetByCampaignID(campaignID string) ([]*models.EmailLog, error)
	GetLatestByParticipantID(participantID string) (*models.EmailLog, error)
	MarkOpened(id string, at time.Time) (bool, error)
}

// EmailLogService owns delivery records and the open-tracking state update.
type EmailLogService struct {
	logs EmailLogStore
}

func NewEmailLogService(logs EmailLogStore) *EmailLogService {
	return &EmailLogService{logs: logs}
}

// Create records a new delivery record
func (s *EmailLogService) Create(log *models.EmailLog) error {
	return s.logs.Create(log)
}

// GetByCampaignID lists delivery records for a campaign
func (s *EmailLogService) GetByCampaignID(campaignID string) ([]*models.EmailLog, error) {
	return s.logs.GetByCampaignID(campaignID)
}

// RecordOpen marks a delivery record opened, exactly once. The record is
// looked up by id when given, else by the most recent record for the
// participant. Lookup misses and store failures are logged and swallowed:
// the tracking endpoint must never surface them.
func (s *EmailLogService) RecordOpen(logID, participantID string) {
	id := logID
	if id == "" {
		if participantID == "" {
			return
		}
		log, err := s.logs.GetLatestByParticipantID(participantID)
		if err != nil {
			logrus.WithField("participant_id", participantID).
				Debugf("Open tracking lookup failed: %v", err)
			return
		}
		id = log.ID
	}

	updated, err := s.logs.MarkOpened(id, time.Now())
	if err != nil {
		logrus.WithField("email_log_id", id).Warnf("Failed to record open event: %v", err)
		return
	}
	if updated {
		logrus.WithField("email_log_id", id).Debug("Delivery record marked opened")
	}
}
