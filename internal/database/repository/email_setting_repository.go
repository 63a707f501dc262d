package repository

import (
	"github.com/eventra/event-registration-backend/internal/models"

	"gorm.io/gorm"
)

type EmailSettingRepository struct {
	db *gorm.DB
}

func NewEmailSettingRepository(db *gorm.DB) *EmailSettingRepository {
	return &EmailSettingRepository{db: db}
}

// Create creates a new provider configuration
func (r *EmailSettingRepository) Create(setting *models.EmailSetting) error {
	return r.db.Create(setting).Error
}

// GetByID retrieves a configuration by ID
func (r *EmailSettingRepository) GetByID(id string) (*models.EmailSetting, error) {
	var setting models.EmailSetting
	err := r.db.First(&setting, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetAll retrieves all configurations
func (r *EmailSettingRepository) GetAll() ([]*models.EmailSetting, error) {
	var settings []*models.EmailSetting
	err := r.db.Order("created_at DESC").Find(&settings).Error
	return settings, err
}

// GetActive retrieves the active configuration. Returns
// gorm.ErrRecordNotFound when no configuration is active.
func (r *EmailSettingRepository) GetActive() (*models.EmailSetting, error) {
	var setting models.EmailSetting
	err := r.db.First(&setting, "active = ?", true).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetActive activates the given configuration and deactivates every other
// one in a single transaction. The partial unique index on (active) backs
// the at-most-one-active invariant; a concurrent activation loses with a
// unique violation.
func (r *EmailSettingRepository) SetActive(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailSetting{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.EmailSetting{}).
			Where("id = ?", id).
			Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete deletes a configuration
func (r *EmailSettingRepository) Delete(id string) error {
	return r.db.Delete(&models.EmailSetting{}, "id = ?", id).Error
}
