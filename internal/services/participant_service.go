package services

import (
	"errors"
	"fmt"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
)

type ParticipantService struct {
	participantRepo *repository.ParticipantRepository
	eventRepo       *repository.EventRepository
}

func NewParticipantService(
	participantRepo *repository.ParticipantRepository,
	eventRepo *repository.EventRepository,
) *ParticipantService {
	return &ParticipantService{
		participantRepo: participantRepo,
		eventRepo:       eventRepo,
	}
}

// RegisterParticipant registers a participant for an event
func (s *ParticipantService) RegisterParticipant(eventID string, req *models.CreateParticipantRequest) (*models.Participant, error) {
	if _, err := s.eventRepo.GetByID(eventID); err != nil {
		return nil, errors.New("event not found")
	}

	participant := &models.Participant{
		EventID:  eventID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		JobTitle: req.JobTitle,
		QRCode:   req.QRCode,
	}
	if err := s.participantRepo.Create(participant); err != nil {
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return participant, nil
}

// GetEventByID retrieves the event a participant operation is scoped to
func (s *ParticipantService) GetEventByID(id string) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("event not found")
	}
	return event, nil
}

// GetParticipantsByEvent retrieves all participants of an event
func (s *ParticipantService) GetParticipantsByEvent(eventID string) ([]models.Participant, error) {
	return s.participantRepo.GetByEventID(eventID)
}

// GetParticipantByID retrieves a participant by ID
func (s *ParticipantService) GetParticipantByID(id string) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("participant not found")
	}
	return participant, nil
}

// UpdateParticipant updates a participant
func (s *ParticipantService) UpdateParticipant(id string, req *models.UpdateParticipantRequest) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("participant not found")
	}

	participant.Name = req.Name
	participant.Email = req.Email
	participant.Phone = req.Phone
	participant.Company = req.Company
	participant.JobTitle = req.JobTitle
	if req.QRCode != "" {
		participant.QRCode = req.QRCode
	}

	if err := s.participantRepo.Update(participant); err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}
	return participant, nil
}

// DeleteParticipant deletes a participant
func (s *ParticipantService) DeleteParticipant(id string) error {
	if _, err := s.participantRepo.GetByID(id); err != nil {
		return errors.New("participant not found")
	}
	return s.participantRepo.Delete(id)
}
