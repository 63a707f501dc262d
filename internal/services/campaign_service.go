package services

import (
	"errors"
	"fmt"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
)

// CampaignService handles campaign CRUD. Dispatch itself lives in
// CampaignDispatchService.
type CampaignService struct {
	campaignRepo *repository.EmailCampaignRepository
	templateRepo *repository.EmailTemplateRepository
	eventRepo    *repository.EventRepository
	logRepo      *repository.EmailLogRepository
}

func NewCampaignService(
	campaignRepo *repository.EmailCampaignRepository,
	templateRepo *repository.EmailTemplateRepository,
	eventRepo *repository.EventRepository,
	logRepo *repository.EmailLogRepository,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		templateRepo: templateRepo,
		eventRepo:    eventRepo,
		logRepo:      logRepo,
	}
}

// CreateCampaign creates a new draft campaign, snapshotting the template
// name and subject so later template edits don't rewrite campaign history.
func (s *CampaignService) CreateCampaign(userID string, req *models.CreateCampaignRequest) (*models.CampaignResponse, error) {
	if _, err := s.eventRepo.GetByID(req.EventID); err != nil {
		return nil, errors.New("event not found")
	}

	template, err := s.templateRepo.GetByID(req.TemplateID)
	if err != nil {
		return nil, errors.New("template not found")
	}

	filter := models.JSON{}
	for key, value := range req.TargetFilter {
		filter[key] = value
	}

	campaign := &models.EmailCampaign{
		EventID:      req.EventID,
		Channel:      "email",
		TemplateID:   template.ID,
		TemplateName: template.Name,
		Subject:      template.Subject,
		TargetType:   req.TargetType,
		TargetFilter: filter,
		TargetIDs:    req.TargetIDs,
		Status:       models.CampaignStatusDraft,
		CreatedBy:    userID,
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign.ToResponse(), nil
}

// GetCampaignsByEvent retrieves all campaigns for an event
func (s *CampaignService) GetCampaignsByEvent(eventID string) ([]*models.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.GetByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	responses := make([]*models.CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		responses[i] = campaign.ToResponse()
	}
	return responses, nil
}

// GetAllCampaigns retrieves all campaigns
func (s *CampaignService) GetAllCampaigns() ([]*models.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	responses := make([]*models.CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		responses[i] = campaign.ToResponse()
	}
	return responses, nil
}

// GetCampaignByID retrieves a campaign by ID
func (s *CampaignService) GetCampaignByID(id string) (*models.CampaignResponse, error) {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	return campaign.ToResponse(), nil
}

// GetCampaignLogs retrieves the delivery records of a campaign
func (s *CampaignService) GetCampaignLogs(id string) ([]*models.EmailLog, error) {
	if _, err := s.campaignRepo.GetByID(id); err != nil {
		return nil, errors.New("campaign not found")
	}
	return s.logRepo.GetByCampaignID(id)
}

// DeleteCampaign deletes a campaign. Only draft campaigns can be deleted.
func (s *CampaignService) DeleteCampaign(id string) error {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return errors.New("campaign not found")
	}
	if campaign.Status != models.CampaignStatusDraft {
		return fmt.Errorf("only draft campaigns can be deleted, campaign is %s", campaign.Status)
	}
	return s.campaignRepo.Delete(id)
}
