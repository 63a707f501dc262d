package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services/mailer"
)

type mockCampaignStore struct {
	mu          sync.Mutex
	campaign    *models.EmailCampaign
	cancelAfter int // cancel the campaign after this many GetStatus calls, 0 disables
	statusCalls int
}

func (m *mockCampaignStore) GetByID(id string) (*models.EmailCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.campaign == nil || m.campaign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m.campaign
	return &copied, nil
}

func (m *mockCampaignStore) MarkSending(id string, total int, targetIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaign.Status = models.CampaignStatusSending
	m.campaign.TotalRecipients = total
	m.campaign.TargetIDs = targetIDs
	return nil
}

func (m *mockCampaignStore) TransitionStatus(id, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.campaign.Status != from {
		return false, nil
	}
	m.campaign.Status = to
	return true, nil
}

func (m *mockCampaignStore) IncrementCounters(id string, sentDelta, failedDelta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaign.SentCount += sentDelta
	m.campaign.FailedCount += failedDelta
	return nil
}

func (m *mockCampaignStore) FinalizeIfComplete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.campaign.Status == models.CampaignStatusSending &&
		m.campaign.SentCount+m.campaign.FailedCount >= m.campaign.TotalRecipients {
		m.campaign.Status = models.CampaignStatusCompleted
		return true, nil
	}
	return false, nil
}

func (m *mockCampaignStore) GetStatus(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.cancelAfter > 0 && m.statusCalls > m.cancelAfter {
		m.campaign.Status = models.CampaignStatusCancelled
	}
	return m.campaign.Status, nil
}

func (m *mockCampaignStore) snapshot() models.EmailCampaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.campaign
}

type mockLogWriter struct {
	mu          sync.Mutex
	created     []*models.EmailLog
	updated     []*models.EmailLog
	failCreates int // fail this many Create calls before succeeding
}

func (m *mockLogWriter) Create(log *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates > 0 {
		m.failCreates--
		return errors.New("insert rejected")
	}
	log.ID = fmt.Sprintf("log-%d", len(m.created)+1)
	copied := *log
	m.created = append(m.created, &copied)
	return nil
}

func (m *mockLogWriter) Update(log *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *log
	m.updated = append(m.updated, &copied)
	return nil
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]bool
}

func (m *mockMailer) Send(ctx context.Context, msg *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return &mailer.ProviderError{Provider: "mock", Op: "submit", Err: errors.New("rejected")}
	}
	m.sent = append(m.sent, *msg)
	return nil
}

type staticResolver struct {
	recipients []models.Participant
}

func (r *staticResolver) Resolve(eventID string, spec TargetSpec) ([]models.Participant, error) {
	return r.recipients, nil
}

type staticTemplates struct{ template *models.EmailTemplate }

func (s *staticTemplates) GetByID(id string) (*models.EmailTemplate, error) {
	if s.template == nil || s.template.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.template, nil
}

type staticEvents struct{ event *models.Event }

func (s *staticEvents) GetByID(id string) (*models.Event, error) {
	if s.event == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.event, nil
}

type staticSettings struct {
	setting *models.EmailSetting
	err     error
}

func (s *staticSettings) GetActive() (*models.EmailSetting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.setting, nil
}

type staticParticipants struct{ byID map[string]*models.Participant }

func (s *staticParticipants) GetByID(id string) (*models.Participant, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type noopAssembler struct{}

func (noopAssembler) Assemble(ctx context.Context, descriptors []string) []mailer.Attachment {
	return nil
}

type dispatchFixture struct {
	service   *CampaignDispatchService
	campaigns *mockCampaignStore
	logs      *mockLogWriter
	mailer    *mockMailer
	settings  *staticSettings
}

func newDispatchFixture(t *testing.T, recipients []models.Participant) *dispatchFixture {
	t.Helper()

	campaigns := &mockCampaignStore{
		campaign: &models.EmailCampaign{
			ID:           "camp-1",
			EventID:      "ev-1",
			TemplateID:   "tmpl-1",
			TemplateName: "Welcome",
			Subject:      "Hello {{name}}",
			TargetType:   models.TargetAll,
			Status:       models.CampaignStatusDraft,
		},
	}
	logs := &mockLogWriter{}
	mock := &mockMailer{failFor: map[string]bool{}}
	settings := &staticSettings{
		setting: &models.EmailSetting{
			Provider:  "smtp",
			SMTPHost:  "smtp.example.com",
			SMTPPort:  587,
			FromEmail: "noreply@example.com",
			Active:    true,
		},
	}

	service := NewCampaignDispatchService(
		campaigns,
		&staticTemplates{template: &models.EmailTemplate{
			ID:      "tmpl-1",
			Name:    "Welcome",
			Subject: "Hello {{name}}",
			Body:    "<html><body>Hi {{name}}, see you at {{event}}.</body></html>",
		}},
		&staticEvents{event: &models.Event{ID: "ev-1", Name: "GopherCon"}},
		settings,
		&staticParticipants{byID: participantIndex(recipients)},
		&staticResolver{recipients: recipients},
		noopAssembler{},
		logs,
	)
	service.throttle = NewFixedDelayThrottle(0)
	service.workers = 1
	service.baseURL = "https://app.example.com"
	service.newMailer = func(mailer.Settings) (mailer.Mailer, error) { return mock, nil }

	return &dispatchFixture{
		service:   service,
		campaigns: campaigns,
		logs:      logs,
		mailer:    mock,
		settings:  settings,
	}
}

func participantIndex(recipients []models.Participant) map[string]*models.Participant {
	byID := make(map[string]*models.Participant, len(recipients))
	for i := range recipients {
		byID[recipients[i].ID] = &recipients[i]
	}
	return byID
}

func TestDispatchMixedOutcomes(t *testing.T) {
	recipients := seedParticipants(5)
	f := newDispatchFixture(t, recipients)
	f.mailer.failFor[recipients[1].Email] = true
	f.mailer.failFor[recipients[3].Email] = true

	err := f.service.Dispatch(context.Background(), "camp-1")
	require.NoError(t, err)

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusCompleted, final.Status)
	assert.Equal(t, 5, final.TotalRecipients)
	assert.Equal(t, 3, final.SentCount)
	assert.Equal(t, 2, final.FailedCount)
	assert.Equal(t, 0, final.PendingCount())

	// One delivery record per recipient, each finalized exactly once
	assert.Len(t, f.logs.created, 5)
	require.Len(t, f.logs.updated, 5)
	sent, failed := 0, 0
	for _, log := range f.logs.updated {
		switch log.Status {
		case models.EmailStatusSent:
			sent++
			assert.NotNil(t, log.SentAt)
		case models.EmailStatusFailed:
			failed++
			assert.NotEmpty(t, log.ErrorMessage)
		}
	}
	assert.Equal(t, 3, sent)
	assert.Equal(t, 2, failed)
}

func TestDispatchCreateFailureStillLeavesFailedRecord(t *testing.T) {
	recipients := seedParticipants(1)
	f := newDispatchFixture(t, recipients)
	f.logs.failCreates = 1

	require.NoError(t, f.service.Dispatch(context.Background(), "camp-1"))

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusCompleted, final.Status)
	assert.Equal(t, 0, final.SentCount)
	assert.Equal(t, 1, final.FailedCount)

	// The retried create keeps records in step with the failed counter
	require.Len(t, f.logs.created, 1)
	assert.Equal(t, models.EmailStatusFailed, f.logs.created[0].Status)
	assert.Contains(t, f.logs.created[0].ErrorMessage, "delivery record not persisted")
	assert.Empty(t, f.mailer.sent)
}

func TestDispatchRendersPlaceholdersAndPixel(t *testing.T) {
	recipients := seedParticipants(1)
	f := newDispatchFixture(t, recipients)

	require.NoError(t, f.service.Dispatch(context.Background(), "camp-1"))
	require.Len(t, f.mailer.sent, 1)

	msg := f.mailer.sent[0]
	assert.Equal(t, "Hello Guest 0", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Guest 0, see you at GopherCon.")

	// Pixel lands inside the body, pointing at this delivery record
	assert.Contains(t, msg.HTML, "https://app.example.com/api/v1/track/open?id=log-1&pid=p-00")
	assert.Contains(t, msg.HTML, `style="display:none"></body>`)
}

func TestDispatchConcurrentWorkersLoseNoOutcomes(t *testing.T) {
	recipients := seedParticipants(40)
	f := newDispatchFixture(t, recipients)
	f.service.workers = 8
	for i, p := range recipients {
		if i%4 == 0 {
			f.mailer.failFor[p.Email] = true
		}
	}

	require.NoError(t, f.service.Dispatch(context.Background(), "camp-1"))

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusCompleted, final.Status)
	assert.Equal(t, 40, final.SentCount+final.FailedCount)
	assert.Equal(t, 10, final.FailedCount)
	assert.Equal(t, 0, final.PendingCount())
}

func TestDispatchNoActiveConfiguration(t *testing.T) {
	f := newDispatchFixture(t, seedParticipants(3))
	f.settings.err = gorm.ErrRecordNotFound

	err := f.service.Dispatch(context.Background(), "camp-1")
	var confErr *mailer.ConfigurationError
	require.ErrorAs(t, err, &confErr)

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusFailed, final.Status)
	assert.Empty(t, f.logs.created)
}

func TestDispatchRejectsNonDraft(t *testing.T) {
	f := newDispatchFixture(t, seedParticipants(3))
	f.campaigns.campaign.Status = models.CampaignStatusCompleted

	err := f.service.Dispatch(context.Background(), "camp-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only draft")
	assert.Empty(t, f.mailer.sent)
}

func TestDispatchStopsAfterCancellation(t *testing.T) {
	recipients := seedParticipants(20)
	f := newDispatchFixture(t, recipients)
	f.campaigns.cancelAfter = 3

	require.NoError(t, f.service.Dispatch(context.Background(), "camp-1"))

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusCancelled, final.Status)
	assert.Less(t, len(f.logs.created), 20)
}

func TestDispatchEmptyTargetSetCompletes(t *testing.T) {
	f := newDispatchFixture(t, nil)

	require.NoError(t, f.service.Dispatch(context.Background(), "camp-1"))

	final := f.campaigns.snapshot()
	assert.Equal(t, models.CampaignStatusCompleted, final.Status)
	assert.Equal(t, 0, final.TotalRecipients)
}

func TestCancelRequiresSendingStatus(t *testing.T) {
	f := newDispatchFixture(t, seedParticipants(2))

	err := f.service.Cancel("camp-1")
	require.Error(t, err)

	f.campaigns.campaign.Status = models.CampaignStatusSending
	assert.NoError(t, f.service.Cancel("camp-1"))
	assert.Equal(t, models.CampaignStatusCancelled, f.campaigns.snapshot().Status)
}

func TestSendOneWithParticipantContext(t *testing.T) {
	recipients := seedParticipants(1)
	f := newDispatchFixture(t, recipients)

	log, err := f.service.SendOne(context.Background(), &models.SendEmailRequest{
		To:            "guest0@example.com",
		Subject:       "Direct {{name}}",
		HTML:          "<p>Hi {{name}}</p>",
		ParticipantID: "p-00",
	})
	require.NoError(t, err)

	assert.Equal(t, models.EmailStatusSent, log.Status)
	assert.Nil(t, log.CampaignID)
	assert.Equal(t, "p-00", log.ParticipantID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Direct Guest 0", f.mailer.sent[0].Subject)
	assert.Contains(t, f.mailer.sent[0].HTML, "Hi Guest 0")
}

func TestRenderPlaceholders(t *testing.T) {
	p := &models.Participant{
		ID:       "p-1",
		Name:     "Ada",
		Email:    "ada@example.com",
		Company:  "Analytical Engines",
		JobTitle: "Engineer",
	}

	out := renderPlaceholders(
		"{{name}} <{{email}}> from {{company}} ({{job_title}}) at {{event}}: {{participant_id}}",
		p, "GopherCon")
	assert.Equal(t, "Ada <ada@example.com> from Analytical Engines (Engineer) at GopherCon: p-1", out)
}

func TestInjectTrackingPixel(t *testing.T) {
	withBody := injectTrackingPixel("<html><BODY>hello</BODY></html>", "https://x", "l1", "p1")
	assert.Contains(t, withBody, `/api/v1/track/open?id=l1&pid=p1`)
	// Case-insensitive body match, pixel sits before the closing tag
	assert.True(t, strings.HasSuffix(withBody, `style="display:none"></BODY></html>`))

	// Without a body tag the pixel is appended
	plain := injectTrackingPixel("hello", "https://x", "l2", "p2")
	assert.True(t, len(plain) > len("hello"))
	assert.Contains(t, plain, "id=l2&pid=p2")
}

func TestInjectTrackingPixelMultibyteBody(t *testing.T) {
	// Characters whose byte length changes under lowercasing must not shift
	// the insertion point
	out := injectTrackingPixel("<html><body>Merhaba İSTANBUL İİİİ</body></html>", "https://x", "l1", "p1")

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "Merhaba İSTANBUL İİİİ<img")
	assert.True(t, strings.HasSuffix(out, `style="display:none"></body></html>`))
}

func TestRecipientDescriptorsRewritesStoredQR(t *testing.T) {
	f := newDispatchFixture(t, nil)

	p := &models.Participant{
		ID:     "p-9",
		Name:   "Ada",
		QRCode: "data:image/png;base64,QUJD",
	}
	out := f.service.recipientDescriptors([]string{"QR:{{participant_id}}", "https://cdn.example.com/a.pdf"}, p, "")
	require.Len(t, out, 2)
	assert.Equal(t, "QRDATA:p-9:data:image/png;base64,QUJD", out[0])
	assert.Equal(t, "https://cdn.example.com/a.pdf", out[1])

	// No stored payload, keep the generate marker
	p.QRCode = ""
	out = f.service.recipientDescriptors([]string{"QR:{{participant_id}}"}, p, "")
	assert.Equal(t, "QR:p-9", out[0])
}
