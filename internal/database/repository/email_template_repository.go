package repository

import (
	"github.com/eventra/event-registration-backend/internal/models"

	"gorm.io/gorm"
)

type EmailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// Create creates a new template
func (r *EmailTemplateRepository) Create(template *models.EmailTemplate) error {
	return r.db.Create(template).Error
}

// GetByID retrieves a template by ID
func (r *EmailTemplateRepository) GetByID(id string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetAll retrieves all templates
func (r *EmailTemplateRepository) GetAll() ([]*models.EmailTemplate, error) {
	var templates []*models.EmailTemplate
	err := r.db.Order("created_at DESC").Find(&templates).Error
	return templates, err
}

// Update updates a template
func (r *EmailTemplateRepository) Update(template *models.EmailTemplate) error {
	return r.db.Save(template).Error
}

// Delete deletes a template
func (r *EmailTemplateRepository) Delete(id string) error {
	return r.db.Delete(&models.EmailTemplate{}, "id = ?", id).Error
}
