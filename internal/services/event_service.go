package services

import (
	"errors"
	"fmt"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
)

type EventService struct {
	eventRepo *repository.EventRepository
}

func NewEventService(eventRepo *repository.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

// CreateEvent creates a new event
func (s *EventService) CreateEvent(req *models.CreateEventRequest) (*models.Event, error) {
	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// GetEvents retrieves all events
func (s *EventService) GetEvents() ([]*models.Event, error) {
	return s.eventRepo.GetAll()
}

// GetEventByID retrieves an event by ID
func (s *EventService) GetEventByID(id string) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("event not found")
	}
	return event, nil
}

// UpdateEvent updates an event
func (s *EventService) UpdateEvent(id string, req *models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("event not found")
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Venue = req.Venue
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate

	if err := s.eventRepo.Update(event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// DeleteEvent deletes an event
func (s *EventService) DeleteEvent(id string) error {
	if _, err := s.eventRepo.GetByID(id); err != nil {
		return errors.New("event not found")
	}
	return s.eventRepo.Delete(id)
}
