package services

import (
	"fmt"

	"github.com/eventra/event-registration-backend/internal/models"
)

// ParticipantReader is the slice of the participant repository the resolver
// needs.
type ParticipantReader interface {
	GetByEventID(eventID string) ([]models.Participant, error)
	GetByEventIDAndIDs(eventID string, ids []string) ([]models.Participant, error)
	GetByEventIDFiltered(eventID string, filter map[string]string) ([]models.Participant, error)
}

// TargetSpec is the rule determining a campaign's recipient set.
type TargetSpec struct {
	Type   string
	Filter map[string]string
	IDs    []string
}

// RecipientService resolves a target specification into a concrete, ordered
// recipient set scoped to one event. Resolution is a pure read, not a
// snapshot: callers needing stability must resolve once and persist the id
// list.
type RecipientService struct {
	participants ParticipantReader
}

func NewRecipientService(participants ParticipantReader) *RecipientService {
	return &RecipientService{participants: participants}
}

// Resolve returns the participants the target rule selects within the event
// scope. An unknown event yields an empty set, not an error. Manual ids
// outside the event scope are silently dropped.
func (s *RecipientService) Resolve(eventID string, spec TargetSpec) ([]models.Participant, error) {
	switch spec.Type {
	case models.TargetAll:
		return s.participants.GetByEventID(eventID)
	case models.TargetFiltered:
		if len(spec.Filter) == 0 {
			return s.participants.GetByEventID(eventID)
		}
		return s.participants.GetByEventIDFiltered(eventID, spec.Filter)
	case models.TargetManual:
		return s.participants.GetByEventIDAndIDs(eventID, spec.IDs)
	default:
		return nil, fmt.Errorf("unknown target type: %s", spec.Type)
	}
}
