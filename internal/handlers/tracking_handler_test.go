package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services"
)

type stubLogStore struct {
	logs        map[string]*models.EmailLog
	markedTimes int
}

func (s *stubLogStore) Create(log *models.EmailLog) error { return nil }

func (s *stubLogStore) GetByID(id string) (*models.EmailLog, error) {
	if log, ok := s.logs[id]; ok {
		return log, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLogStore) GetByCampaignID(campaignID string) ([]*models.EmailLog, error) {
	return nil, nil
}

func (s *stubLogStore) GetLatestByParticipantID(participantID string) (*models.EmailLog, error) {
	for _, log := range s.logs {
		if log.ParticipantID == participantID {
			return log, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLogStore) MarkOpened(id string, at time.Time) (bool, error) {
	log, ok := s.logs[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if log.OpenedAt != nil {
		return false, nil
	}
	log.OpenedAt = &at
	if log.Status == models.EmailStatusSent || log.Status == models.EmailStatusPending {
		log.Status = models.EmailStatusOpened
	}
	s.markedTimes++
	return true, nil
}

func trackingRouter(store *stubLogStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewTrackingHandler(services.NewEmailLogService(store))
	r.GET("/api/v1/track/open", handler.TrackOpen)
	return r
}

func TestTrackOpenReturnsPixel(t *testing.T) {
	store := &stubLogStore{logs: map[string]*models.EmailLog{
		"log-1": {ID: "log-1", ParticipantID: "p-1", Status: models.EmailStatusSent},
	}}
	r := trackingRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/track/open?id=log-1&pid=p-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.NotEmpty(t, w.Body.Bytes())

	require.NotNil(t, store.logs["log-1"].OpenedAt)
	assert.Equal(t, models.EmailStatusOpened, store.logs["log-1"].Status)
}

func TestTrackOpenAlways200(t *testing.T) {
	r := trackingRouter(&stubLogStore{logs: map[string]*models.EmailLog{}})

	for _, target := range []string{
		"/api/v1/track/open",
		"/api/v1/track/open?id=unknown",
		"/api/v1/track/open?pid=unknown",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, w.Code, "target %s", target)
		assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	}
}

func TestTrackOpenSecondOpenLeavesTimestamp(t *testing.T) {
	store := &stubLogStore{logs: map[string]*models.EmailLog{
		"log-1": {ID: "log-1", ParticipantID: "p-1", Status: models.EmailStatusSent},
	}}
	r := trackingRouter(store)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/track/open?id=log-1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, store.markedTimes)
}
