package services

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/eventra/event-registration-backend/internal/models"
	"github.com/eventra/event-registration-backend/internal/services/mailer"
	"github.com/eventra/event-registration-backend/internal/utils"
)

// CampaignStore is the slice of the campaign repository the dispatcher needs.
type CampaignStore interface {
	GetByID(id string) (*models.EmailCampaign, error)
	MarkSending(id string, total int, targetIDs []string) error
	TransitionStatus(id, from, to string) (bool, error)
	IncrementCounters(id string, sentDelta, failedDelta int) error
	FinalizeIfComplete(id string) (bool, error)
	GetStatus(id string) (string, error)
}

// TemplateReader loads the template a campaign references.
type TemplateReader interface {
	GetByID(id string) (*models.EmailTemplate, error)
}

// EventReader loads the event a campaign is scoped to.
type EventReader interface {
	GetByID(id string) (*models.Event, error)
}

// SettingReader loads the single active provider configuration.
type SettingReader interface {
	GetActive() (*models.EmailSetting, error)
}

// ParticipantGetter loads one participant for one-off sends.
type ParticipantGetter interface {
	GetByID(id string) (*models.Participant, error)
}

// TargetResolver resolves a target spec into recipients.
type TargetResolver interface {
	Resolve(eventID string, spec TargetSpec) ([]models.Participant, error)
}

// AttachmentAssembler turns descriptors into binary payloads.
type AttachmentAssembler interface {
	Assemble(ctx context.Context, descriptors []string) []mailer.Attachment
}

// DeliveryLogWriter creates and finalizes delivery records.
type DeliveryLogWriter interface {
	Create(log *models.EmailLog) error
	Update(log *models.EmailLog) error
}

// Throttle paces the dispatch loop between recipients. The policy is
// pluggable; the default is a fixed delay.
type Throttle interface {
	Wait()
}

type fixedDelayThrottle struct {
	delay time.Duration
}

func (t *fixedDelayThrottle) Wait() {
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
}

// NewFixedDelayThrottle returns a throttle sleeping a fixed duration
// between recipients.
func NewFixedDelayThrottle(delay time.Duration) Throttle {
	return &fixedDelayThrottle{delay: delay}
}

// CampaignDispatchService owns campaign state transitions and the dispatch
// loop: resolve targets once, then per recipient assemble attachments,
// submit through the active provider and record the outcome atomically.
type CampaignDispatchService struct {
	campaigns    CampaignStore
	templates    TemplateReader
	events       EventReader
	settings     SettingReader
	participants ParticipantGetter
	resolver     TargetResolver
	assembler    AttachmentAssembler
	logs         DeliveryLogWriter
	throttle     Throttle
	workers      int
	baseURL      string

	// newMailer is swapped out in tests
	newMailer func(mailer.Settings) (mailer.Mailer, error)
}

func NewCampaignDispatchService(
	campaigns CampaignStore,
	templates TemplateReader,
	events EventReader,
	settings SettingReader,
	participants ParticipantGetter,
	resolver TargetResolver,
	assembler AttachmentAssembler,
	logs DeliveryLogWriter,
) *CampaignDispatchService {
	delay := time.Duration(getEnvAsInt("EMAIL_SEND_DELAY_MS", 500)) * time.Millisecond
	workers := getEnvAsInt("EMAIL_DISPATCH_WORKERS", 1)

	return &CampaignDispatchService{
		campaigns:    campaigns,
		templates:    templates,
		events:       events,
		settings:     settings,
		participants: participants,
		resolver:     resolver,
		assembler:    assembler,
		logs:         logs,
		throttle:     NewFixedDelayThrottle(delay),
		workers:      workers,
		baseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		newMailer:    mailer.New,
	}
}

// Dispatch runs a full campaign: validates the active configuration,
// resolves the target set once, moves the campaign to sending and works
// through every recipient. Only a ConfigurationError halts the campaign;
// per-recipient failures are recorded and the loop continues.
func (s *CampaignDispatchService) Dispatch(ctx context.Context, campaignID string) error {
	campaign, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		return fmt.Errorf("campaign not found: %w", err)
	}
	if campaign.Status != models.CampaignStatusDraft {
		return fmt.Errorf("campaign %s is %s, only draft campaigns can be dispatched", campaignID, campaign.Status)
	}

	setting, err := s.settings.GetActive()
	if err != nil {
		s.failCampaign(campaign.ID, campaign.Status)
		if err == gorm.ErrRecordNotFound {
			return &mailer.ConfigurationError{Reason: "no active email provider configuration"}
		}
		return fmt.Errorf("failed to load active email configuration: %w", err)
	}

	m, err := s.newMailer(settingsFromModel(setting))
	if err != nil {
		s.failCampaign(campaign.ID, campaign.Status)
		return err
	}

	template, err := s.templates.GetByID(campaign.TemplateID)
	if err != nil {
		s.failCampaign(campaign.ID, campaign.Status)
		return fmt.Errorf("campaign template not found: %w", err)
	}

	eventName := ""
	if event, err := s.events.GetByID(campaign.EventID); err == nil {
		eventName = event.Name
	}

	spec := TargetSpec{
		Type: campaign.TargetType,
		IDs:  campaign.TargetIDs,
	}
	if campaign.TargetFilter != nil {
		spec.Filter = make(map[string]string, len(campaign.TargetFilter))
		for key, value := range campaign.TargetFilter {
			if str, ok := value.(string); ok {
				spec.Filter[key] = str
			}
		}
	}

	recipients, err := s.resolver.Resolve(campaign.EventID, spec)
	if err != nil {
		s.failCampaign(campaign.ID, campaign.Status)
		return fmt.Errorf("failed to resolve campaign targets: %w", err)
	}

	ids := make([]string, len(recipients))
	for i, recipient := range recipients {
		ids[i] = recipient.ID
	}
	if err := s.campaigns.MarkSending(campaign.ID, len(recipients), ids); err != nil {
		return fmt.Errorf("failed to start campaign: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"recipients":  len(recipients),
		"provider":    setting.Provider,
	}).Info("Campaign dispatch started")

	if len(recipients) == 0 {
		s.campaigns.FinalizeIfComplete(campaign.ID)
		return nil
	}

	s.runDispatchLoop(ctx, campaign, template, eventName, m, recipients)
	return nil
}

// runDispatchLoop fans recipients out over a bounded worker pool (a single
// worker gives sequential dispatch). Cancellation stops scheduling of
// not-yet-started recipients; messages already submitted cannot be recalled.
func (s *CampaignDispatchService) runDispatchLoop(
	ctx context.Context,
	campaign *models.EmailCampaign,
	template *models.EmailTemplate,
	eventName string,
	m mailer.Mailer,
	recipients []models.Participant,
) {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.Participant)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for recipient := range jobs {
				s.processRecipient(ctx, campaign, template, eventName, m, recipient)
				s.throttle.Wait()
			}
		}()
	}

	for _, recipient := range recipients {
		status, err := s.campaigns.GetStatus(campaign.ID)
		if err == nil && status == models.CampaignStatusCancelled {
			logrus.WithField("campaign_id", campaign.ID).Info("Campaign cancelled, stopping dispatch")
			break
		}
		jobs <- recipient
	}
	close(jobs)
	wg.Wait()

	s.campaigns.FinalizeIfComplete(campaign.ID)
}

// processRecipient sends to exactly one recipient and yields exactly one
// delivery record. Attachment failures never fail the send; provider and
// validation failures fail this recipient only.
func (s *CampaignDispatchService) processRecipient(
	ctx context.Context,
	campaign *models.EmailCampaign,
	template *models.EmailTemplate,
	eventName string,
	m mailer.Mailer,
	recipient models.Participant,
) {
	subject := renderPlaceholders(campaign.Subject, &recipient, eventName)

	log := &models.EmailLog{
		ParticipantID: recipient.ID,
		CampaignID:    &campaign.ID,
		Recipient:     recipient.Email,
		TemplateName:  campaign.TemplateName,
		Subject:       subject,
		Status:        models.EmailStatusPending,
	}
	if err := s.logs.Create(log); err != nil {
		logrus.WithField("participant_id", recipient.ID).
			Errorf("Failed to create delivery record: %v", err)
		// The recipient counts as failed either way; try once more to leave a
		// failed record behind so counters and records stay in step.
		log.Status = models.EmailStatusFailed
		log.ErrorMessage = "delivery record not persisted: " + err.Error()
		if retryErr := s.logs.Create(log); retryErr != nil {
			logrus.WithField("participant_id", recipient.ID).
				Errorf("Failed to persist failed delivery record: %v", retryErr)
		}
		s.recordOutcome(campaign.ID, false)
		return
	}

	html := renderPlaceholders(template.Body, &recipient, eventName)
	html = injectTrackingPixel(html, s.baseURL, log.ID, recipient.ID)

	descriptors := s.recipientDescriptors(template.Attachments, &recipient, eventName)
	attachments := s.assembler.Assemble(ctx, descriptors)

	msg := &mailer.Message{
		To:          recipient.Email,
		ToName:      recipient.Name,
		Subject:     subject,
		HTML:        html,
		Attachments: attachments,
	}

	err := m.Send(ctx, msg)
	now := time.Now()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"campaign_id":    campaign.ID,
			"participant_id": recipient.ID,
		}).Warnf("Send failed: %v", err)
		log.Status = models.EmailStatusFailed
		log.ErrorMessage = err.Error()
	} else {
		log.Status = models.EmailStatusSent
		log.SentAt = &now
	}
	if updateErr := s.logs.Update(log); updateErr != nil {
		logrus.Errorf("Failed to update delivery record %s: %v", log.ID, updateErr)
	}

	s.recordOutcome(campaign.ID, err == nil)
}

// recordOutcome atomically increments exactly one counter and finalizes the
// campaign when every recipient is accounted for.
func (s *CampaignDispatchService) recordOutcome(campaignID string, success bool) {
	sentDelta, failedDelta := 0, 1
	if success {
		sentDelta, failedDelta = 1, 0
	}
	if err := s.campaigns.IncrementCounters(campaignID, sentDelta, failedDelta); err != nil {
		logrus.Errorf("Failed to update campaign counters for %s: %v", campaignID, err)
		utils.CaptureError(err)
		return
	}
	if _, err := s.campaigns.FinalizeIfComplete(campaignID); err != nil {
		logrus.Errorf("Failed to finalize campaign %s: %v", campaignID, err)
	}
}

// Cancel stops scheduling of not-yet-started recipients. Messages already
// submitted to a provider cannot be recalled.
func (s *CampaignDispatchService) Cancel(campaignID string) error {
	ok, err := s.campaigns.TransitionStatus(campaignID, models.CampaignStatusSending, models.CampaignStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("campaign %s is not sending", campaignID)
	}
	return nil
}

// SendOne submits a single one-off message outside any campaign and records
// a campaign-less delivery record.
func (s *CampaignDispatchService) SendOne(ctx context.Context, req *models.SendEmailRequest) (*models.EmailLog, error) {
	setting, err := s.settings.GetActive()
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &mailer.ConfigurationError{Reason: "no active email provider configuration"}
		}
		return nil, fmt.Errorf("failed to load active email configuration: %w", err)
	}
	m, err := s.newMailer(settingsFromModel(setting))
	if err != nil {
		return nil, err
	}

	subject := req.Subject
	html := req.HTML
	descriptors := req.Attachments

	var recipient *models.Participant
	eventName := ""
	if req.ParticipantID != "" {
		if p, err := s.participants.GetByID(req.ParticipantID); err == nil {
			recipient = p
			if event, err := s.events.GetByID(p.EventID); err == nil {
				eventName = event.Name
			}
		}
	}

	templateName := ""
	if req.TemplateID != "" {
		template, err := s.templates.GetByID(req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("template not found: %w", err)
		}
		templateName = template.Name
		subject = template.Subject
		html = template.Body
		if len(descriptors) == 0 {
			descriptors = template.Attachments
		}
	}

	if recipient != nil {
		subject = renderPlaceholders(subject, recipient, eventName)
		html = renderPlaceholders(html, recipient, eventName)
		descriptors = s.recipientDescriptors(descriptors, recipient, eventName)
	}

	log := &models.EmailLog{
		Recipient:    req.To,
		TemplateName: templateName,
		Subject:      subject,
		Status:       models.EmailStatusPending,
	}
	toName := ""
	if recipient != nil {
		log.ParticipantID = recipient.ID
		toName = recipient.Name
	}
	if err := s.logs.Create(log); err != nil {
		return nil, fmt.Errorf("failed to create delivery record: %w", err)
	}

	html = injectTrackingPixel(html, s.baseURL, log.ID, log.ParticipantID)

	msg := &mailer.Message{
		To:          req.To,
		ToName:      toName,
		Subject:     subject,
		HTML:        html,
		Attachments: s.assembler.Assemble(ctx, descriptors),
	}

	sendErr := m.Send(ctx, msg)
	now := time.Now()
	if sendErr != nil {
		log.Status = models.EmailStatusFailed
		log.ErrorMessage = sendErr.Error()
	} else {
		log.Status = models.EmailStatusSent
		log.SentAt = &now
	}
	if err := s.logs.Update(log); err != nil {
		logrus.Errorf("Failed to update delivery record %s: %v", log.ID, err)
	}

	return log, sendErr
}

// failCampaign moves a campaign to failed on an unrecoverable top-level
// fault, before any recipient is processed.
func (s *CampaignDispatchService) failCampaign(campaignID, from string) {
	if _, err := s.campaigns.TransitionStatus(campaignID, from, models.CampaignStatusFailed); err != nil {
		logrus.Errorf("Failed to mark campaign %s failed: %v", campaignID, err)
	}
}

// recipientDescriptors renders descriptor placeholders for one recipient
// and swaps generate markers for the participant's stored QR payload when
// one exists.
func (s *CampaignDispatchService) recipientDescriptors(descriptors []string, recipient *models.Participant, eventName string) []string {
	rendered := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		d := renderPlaceholders(descriptor, recipient, eventName)
		if strings.HasPrefix(d, "QR:") && recipient.QRCode != "" {
			d = fmt.Sprintf("QRDATA:%s:%s", recipient.ID, recipient.QRCode)
		}
		rendered = append(rendered, d)
	}
	return rendered
}

// renderPlaceholders substitutes recipient and event placeholders in
// template text.
func renderPlaceholders(text string, recipient *models.Participant, eventName string) string {
	replacer := strings.NewReplacer(
		"{{name}}", recipient.Name,
		"{{email}}", recipient.Email,
		"{{company}}", recipient.Company,
		"{{job_title}}", recipient.JobTitle,
		"{{event}}", eventName,
		"{{participant_id}}", recipient.ID,
	)
	return replacer.Replace(text)
}

var closingBodyTag = regexp.MustCompile(`(?i)</body>`)

// injectTrackingPixel appends the open-tracking image before the closing
// body tag, or at the end when there is none.
func injectTrackingPixel(html, baseURL, logID, participantID string) string {
	pixel := fmt.Sprintf(
		`<img src="%s/api/v1/track/open?id=%s&pid=%s" width="1" height="1" alt="" style="display:none">`,
		baseURL, logID, participantID)

	// The match carries byte offsets into html itself, so multibyte content
	// before the tag cannot shift the insertion point.
	if locs := closingBodyTag.FindAllStringIndex(html, -1); len(locs) > 0 {
		idx := locs[len(locs)-1][0]
		return html[:idx] + pixel + html[idx:]
	}
	return html + pixel
}

func settingsFromModel(setting *models.EmailSetting) mailer.Settings {
	return mailer.Settings{
		Provider:     setting.Provider,
		SMTPHost:     setting.SMTPHost,
		SMTPPort:     setting.SMTPPort,
		SMTPUsername: setting.SMTPUsername,
		SMTPPassword: setting.SMTPPassword,
		SMTPSecure:   setting.SMTPSecure,
		APIKey:       setting.APIKey,
		Domain:       setting.Domain,
		FromEmail:    setting.FromEmail,
		FromName:     setting.FromName,
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
