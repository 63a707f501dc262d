package repository

import (
	"time"

	"github.com/eventra/event-registration-backend/internal/models"

	"gorm.io/gorm"
)

type EmailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Create creates a new delivery record
func (r *EmailLogRepository) Create(log *models.EmailLog) error {
	return r.db.Create(log).Error
}

// GetByID retrieves a delivery record by ID
func (r *EmailLogRepository) GetByID(id string) (*models.EmailLog, error) {
	var log models.EmailLog
	err := r.db.First(&log, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// GetByCampaignID retrieves all delivery records for a campaign
func (r *EmailLogRepository) GetByCampaignID(campaignID string) ([]*models.EmailLog, error) {
	var logs []*models.EmailLog
	err := r.db.Where("campaign_id = ?", campaignID).Order("created_at").Find(&logs).Error
	return logs, err
}

// GetLatestByParticipantID retrieves the most recent delivery record for a
// participant. Used by the tracking endpoint when only pid is supplied.
func (r *EmailLogRepository) GetLatestByParticipantID(participantID string) (*models.EmailLog, error) {
	var log models.EmailLog
	err := r.db.Where("participant_id = ?", participantID).
		Order("created_at DESC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Update updates a delivery record
func (r *EmailLogRepository) Update(log *models.EmailLog) error {
	return r.db.Save(log).Error
}

// MarkOpened sets opened_at exactly once. The conditional UPDATE makes the
// operation idempotent: subsequent calls match zero rows and report false.
// Status only moves forward from sent or pending; a failed record keeps its
// status but still gets the timestamp.
func (r *EmailLogRepository) MarkOpened(id string, at time.Time) (bool, error) {
	res := r.db.Model(&models.EmailLog{}).
		Where("id = ? AND opened_at IS NULL", id).
		Updates(map[string]interface{}{
			"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN ? ELSE status END",
				models.EmailStatusSent, models.EmailStatusPending, models.EmailStatusOpened),
			"opened_at": at,
		})
	return res.RowsAffected > 0, res.Error
}
