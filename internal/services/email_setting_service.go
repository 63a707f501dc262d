package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services/mailer"
)

type EmailSettingService struct {
	settingRepo *repository.EmailSettingRepository
}

func NewEmailSettingService(settingRepo *repository.EmailSettingRepository) *EmailSettingService {
	return &EmailSettingService{settingRepo: settingRepo}
}

// CreateSetting creates a new provider configuration. The configuration is
// run through the mailer factory first so inconsistent variants (for
// example port 465 without transport security) are rejected up front.
func (s *EmailSettingService) CreateSetting(req *models.CreateEmailSettingRequest) (*models.EmailSetting, error) {
	setting := &models.EmailSetting{
		Provider:     req.Provider,
		SMTPHost:     req.SMTPHost,
		SMTPPort:     req.SMTPPort,
		SMTPUsername: req.SMTPUsername,
		SMTPPassword: req.SMTPPassword,
		SMTPSecure:   req.SMTPSecure,
		APIKey:       req.APIKey,
		Domain:       req.Domain,
		FromEmail:    req.FromEmail,
		FromName:     req.FromName,
	}

	if _, err := mailer.New(settingsFromModel(setting)); err != nil {
		return nil, err
	}

	if err := s.settingRepo.Create(setting); err != nil {
		return nil, fmt.Errorf("failed to create email setting: %w", err)
	}
	return setting, nil
}

// GetSettings retrieves all provider configurations
func (s *EmailSettingService) GetSettings() ([]*models.EmailSetting, error) {
	return s.settingRepo.GetAll()
}

// GetActiveSetting retrieves the active configuration, or nil when none is
// active.
func (s *EmailSettingService) GetActiveSetting() (*models.EmailSetting, error) {
	setting, err := s.settingRepo.GetActive()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return setting, nil
}

// ActivateSetting makes the given configuration the single active one
func (s *EmailSettingService) ActivateSetting(id string) error {
	if err := s.settingRepo.SetActive(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("email setting not found")
		}
		return fmt.Errorf("failed to activate email setting: %w", err)
	}
	return nil
}

// DeleteSetting deletes a configuration
func (s *EmailSettingService) DeleteSetting(id string) error {
	setting, err := s.settingRepo.GetByID(id)
	if err != nil {
		return errors.New("email setting not found")
	}
	if setting.Active {
		return errors.New("cannot delete the active email setting")
	}
	return s.settingRepo.Delete(id)
}
