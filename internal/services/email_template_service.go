package services

import (
	"errors"
	"fmt"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
)

type EmailTemplateService struct {
	templateRepo *repository.EmailTemplateRepository
}

func NewEmailTemplateService(templateRepo *repository.EmailTemplateRepository) *EmailTemplateService {
	return &EmailTemplateService{templateRepo: templateRepo}
}

// CreateTemplate creates a new email template. Attachment descriptors are
// validated up front so a bad descriptor fails loudly here instead of
// silently at dispatch time.
func (s *EmailTemplateService) CreateTemplate(req *models.CreateEmailTemplateRequest) (*models.EmailTemplate, error) {
	if err := validateDescriptors(req.Attachments); err != nil {
		return nil, err
	}

	template := &models.EmailTemplate{
		EventID:     req.EventID,
		Name:        req.Name,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	}
	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

// GetTemplates retrieves all templates
func (s *EmailTemplateService) GetTemplates() ([]*models.EmailTemplate, error) {
	return s.templateRepo.GetAll()
}

// GetTemplateByID retrieves a template by ID
func (s *EmailTemplateService) GetTemplateByID(id string) (*models.EmailTemplate, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("template not found")
	}
	return template, nil
}

// UpdateTemplate updates a template
func (s *EmailTemplateService) UpdateTemplate(id string, req *models.UpdateEmailTemplateRequest) (*models.EmailTemplate, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("template not found")
	}
	if err := validateDescriptors(req.Attachments); err != nil {
		return nil, err
	}

	template.Name = req.Name
	template.Subject = req.Subject
	template.Body = req.Body
	template.Attachments = req.Attachments

	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// DeleteTemplate deletes a template
func (s *EmailTemplateService) DeleteTemplate(id string) error {
	if _, err := s.templateRepo.GetByID(id); err != nil {
		return errors.New("template not found")
	}
	return s.templateRepo.Delete(id)
}

// validateDescriptors checks that every attachment descriptor parses.
// Placeholder forms are rendered with a probe id first.
func validateDescriptors(descriptors []string) error {
	for _, descriptor := range descriptors {
		probe := models.Participant{ID: "00000000-0000-0000-0000-000000000000"}
		rendered := renderPlaceholders(descriptor, &probe, "")
		if _, err := ParseAttachmentDescriptor(rendered); err != nil {
			// QRDATA descriptors with a stored payload are produced at
			// dispatch time, so only reject what can never resolve.
			return fmt.Errorf("invalid attachment descriptor %q: %w", descriptor, err)
		}
	}
	return nil
}
