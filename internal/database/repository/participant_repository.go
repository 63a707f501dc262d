package repository

import (
	"github.com/eventra/event-registration-backend/internal/models"

	"gorm.io/gorm"
)

// filterColumns maps supported target-filter keys to participant columns.
// Keys outside this map impose no constraint.
var filterColumns = map[string]string{
	"company":      "company",
	"organization": "company",
	"job_title":    "job_title",
	"role_title":   "job_title",
}

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create creates a new participant
func (r *ParticipantRepository) Create(participant *models.Participant) error {
	return r.db.Create(participant).Error
}

// CreateBatch creates participants in bulk (Excel import)
func (r *ParticipantRepository) CreateBatch(participants []*models.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.CreateInBatches(participants, 100).Error
}

// GetByID retrieves a participant by ID
func (r *ParticipantRepository) GetByID(id string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.First(&participant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// GetByEventID retrieves all participants registered for an event
func (r *ParticipantRepository) GetByEventID(eventID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.Where("event_id = ?", eventID).Order("created_at").Find(&participants).Error
	return participants, err
}

// GetByEventIDAndIDs retrieves the participants whose IDs are in the given
// list and who belong to the event. IDs outside the event scope are dropped.
func (r *ParticipantRepository) GetByEventIDAndIDs(eventID string, ids []string) ([]models.Participant, error) {
	if len(ids) == 0 {
		return []models.Participant{}, nil
	}
	var participants []models.Participant
	err := r.db.Where("event_id = ? AND id IN ?", eventID, ids).Order("created_at").Find(&participants).Error
	return participants, err
}

// GetByEventIDFiltered retrieves event participants matching every supplied
// filter predicate (conjunctive).
func (r *ParticipantRepository) GetByEventIDFiltered(eventID string, filter map[string]string) ([]models.Participant, error) {
	query := r.db.Where("event_id = ?", eventID)
	for key, value := range filter {
		if column, ok := filterColumns[key]; ok {
			query = query.Where(column+" = ?", value)
		}
	}
	var participants []models.Participant
	err := query.Order("created_at").Find(&participants).Error
	return participants, err
}

// Update updates a participant
func (r *ParticipantRepository) Update(participant *models.Participant) error {
	return r.db.Save(participant).Error
}

// Delete deletes a participant
func (r *ParticipantRepository) Delete(id string) error {
	return r.db.Delete(&models.Participant{}, "id = ?", id).Error
}
