package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra/event-registration-backend/internal/models"
)

// fakeParticipantReader serves participants for one event from memory,
// mirroring the repository's AND-filter and scope semantics.
type fakeParticipantReader struct {
	eventID      string
	participants []models.Participant
}

func (f *fakeParticipantReader) GetByEventID(eventID string) ([]models.Participant, error) {
	if eventID != f.eventID {
		return nil, nil
	}
	return f.participants, nil
}

func (f *fakeParticipantReader) GetByEventIDAndIDs(eventID string, ids []string) ([]models.Participant, error) {
	if eventID != f.eventID {
		return nil, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Participant
	for _, p := range f.participants {
		if wanted[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantReader) GetByEventIDFiltered(eventID string, filter map[string]string) ([]models.Participant, error) {
	if eventID != f.eventID {
		return nil, nil
	}
	var out []models.Participant
	for _, p := range f.participants {
		if company, ok := filter["company"]; ok && p.Company != company {
			continue
		}
		if jobTitle, ok := filter["job_title"]; ok && p.JobTitle != jobTitle {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func seedParticipants(n int) []models.Participant {
	participants := make([]models.Participant, n)
	for i := range participants {
		company := "Acme"
		if i%2 == 1 {
			company = "Globex"
		}
		participants[i] = models.Participant{
			ID:      fmt.Sprintf("p-%02d", i),
			EventID: "ev-1",
			Name:    fmt.Sprintf("Guest %d", i),
			Email:   fmt.Sprintf("guest%d@example.com", i),
			Company: company,
		}
	}
	return participants
}

func TestResolveAll(t *testing.T) {
	reader := &fakeParticipantReader{eventID: "ev-1", participants: seedParticipants(10)}
	service := NewRecipientService(reader)

	got, err := service.Resolve("ev-1", TargetSpec{Type: models.TargetAll})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestResolveFiltered(t *testing.T) {
	reader := &fakeParticipantReader{eventID: "ev-1", participants: seedParticipants(10)}
	service := NewRecipientService(reader)

	got, err := service.Resolve("ev-1", TargetSpec{
		Type:   models.TargetFiltered,
		Filter: map[string]string{"company": "Acme"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	for _, p := range got {
		assert.Equal(t, "Acme", p.Company)
	}
}

func TestResolveFilteredEmptyFilterMeansAll(t *testing.T) {
	reader := &fakeParticipantReader{eventID: "ev-1", participants: seedParticipants(6)}
	service := NewRecipientService(reader)

	got, err := service.Resolve("ev-1", TargetSpec{Type: models.TargetFiltered})
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestResolveManualDropsOutOfScopeIDs(t *testing.T) {
	reader := &fakeParticipantReader{eventID: "ev-1", participants: seedParticipants(5)}
	service := NewRecipientService(reader)

	got, err := service.Resolve("ev-1", TargetSpec{
		Type: models.TargetManual,
		IDs:  []string{"p-01", "p-03", "not-in-event"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-01", got[0].ID)
	assert.Equal(t, "p-03", got[1].ID)
}

func TestResolveUnknownEventYieldsEmptySet(t *testing.T) {
	reader := &fakeParticipantReader{eventID: "ev-1", participants: seedParticipants(5)}
	service := NewRecipientService(reader)

	got, err := service.Resolve("ev-other", TargetSpec{Type: models.TargetAll})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveUnknownTargetType(t *testing.T) {
	service := NewRecipientService(&fakeParticipantReader{})

	_, err := service.Resolve("ev-1", TargetSpec{Type: "everyone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "everyone")
}
