package repository

import (
	"time"

	"github.com/eventra/event-registration-backend/internal/models"

	"gorm.io/gorm"
)

type EmailCampaignRepository struct {
	db *gorm.DB
}

func NewEmailCampaignRepository(db *gorm.DB) *EmailCampaignRepository {
	return &EmailCampaignRepository{db: db}
}

// Create creates a new campaign
func (r *EmailCampaignRepository) Create(campaign *models.EmailCampaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by ID
func (r *EmailCampaignRepository) GetByID(id string) (*models.EmailCampaign, error) {
	var campaign models.EmailCampaign
	err := r.db.First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByEventID retrieves all campaigns for an event
func (r *EmailCampaignRepository) GetByEventID(eventID string) ([]*models.EmailCampaign, error) {
	var campaigns []*models.EmailCampaign
	err := r.db.Where("event_id = ?", eventID).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// GetAll retrieves all campaigns
func (r *EmailCampaignRepository) GetAll() ([]*models.EmailCampaign, error) {
	var campaigns []*models.EmailCampaign
	err := r.db.Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// Update updates a campaign
func (r *EmailCampaignRepository) Update(campaign *models.EmailCampaign) error {
	return r.db.Save(campaign).Error
}

// Delete deletes a campaign
func (r *EmailCampaignRepository) Delete(id string) error {
	return r.db.Delete(&models.EmailCampaign{}, "id = ?", id).Error
}

// TransitionStatus moves a campaign from one status to another. The WHERE
// guard keeps transitions forward-only; returns false when the campaign was
// not in the expected status.
func (r *EmailCampaignRepository) TransitionStatus(id, from, to string) (bool, error) {
	res := r.db.Model(&models.EmailCampaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// MarkSending flips the campaign to sending, stamps sent_at and snapshots
// the resolved recipient count and id list.
func (r *EmailCampaignRepository) MarkSending(id string, total int, targetIDs []string) error {
	now := time.Now()
	return r.db.Model(&models.EmailCampaign{}).
		Where("id = ? AND status = ?", id, models.CampaignStatusDraft).
		Updates(map[string]interface{}{
			"status":           models.CampaignStatusSending,
			"sent_at":          now,
			"total_recipients": total,
			"target_ids":       models.StringList(targetIDs),
		}).Error
}

// IncrementCounters atomically adds the deltas to the campaign counters in
// a single UPDATE. Concurrent dispatch workers never lose an increment.
func (r *EmailCampaignRepository) IncrementCounters(id string, sentDelta, failedDelta int) error {
	return r.db.Model(&models.EmailCampaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent_count":   gorm.Expr("sent_count + ?", sentDelta),
			"failed_count": gorm.Expr("failed_count + ?", failedDelta),
		}).Error
}

// FinalizeIfComplete marks the campaign completed once every recipient is
// accounted for. The guard keeps it a no-op for cancelled/failed campaigns
// and makes the transition race-free under concurrent recorders.
func (r *EmailCampaignRepository) FinalizeIfComplete(id string) (bool, error) {
	res := r.db.Model(&models.EmailCampaign{}).
		Where("id = ? AND status = ? AND sent_count + failed_count >= total_recipients",
			id, models.CampaignStatusSending).
		Updates(map[string]interface{}{
			"status":       models.CampaignStatusCompleted,
			"completed_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// GetStatus returns just the current status of a campaign
func (r *EmailCampaignRepository) GetStatus(id string) (string, error) {
	var status string
	err := r.db.Model(&models.EmailCampaign{}).
		Where("id = ?", id).
		Pluck("status", &status).Error
	return status, err
}
