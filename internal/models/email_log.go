package models

import (
	"time"
)

// Delivery record statuses. A record only advances toward more information:
// pending -> sent -> opened -> clicked, or pending -> failed.
const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusOpened  = "opened"
	EmailStatusClicked = "clicked"
)

// EmailLog represents the outcome of sending to exactly one recipient.
// CampaignID is nil for one-off sends.
type EmailLog struct {
	ID            string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ParticipantID string  `json:"participant_id" gorm:"index;type:uuid"`
	CampaignID    *string `json:"campaign_id" gorm:"index;type:uuid"`
	Recipient     string  `json:"recipient" gorm:"type:varchar(255);not null"`
	TemplateName  string  `json:"template_name" gorm:"type:varchar(255)"`
	Subject       string  `json:"subject" gorm:"type:varchar(255)"`
	Status        string  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ErrorMessage  string  `json:"error_message,omitempty" gorm:"type:text"`

	SentAt    *time.Time `json:"sent_at"`
	OpenedAt  *time.Time `json:"opened_at"` // set at most once, immutable thereafter
	ClickedAt *time.Time `json:"clicked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the EmailLog model
func (EmailLog) TableName() string {
	return "email_logs"
}

// SendEmailRequest represents a one-off dispatch request
type SendEmailRequest struct {
	To            string   `json:"to" binding:"required,email"`
	Subject       string   `json:"subject" binding:"required"`
	HTML          string   `json:"html" binding:"required"`
	ParticipantID string   `json:"participant_id"`
	TemplateID    string   `json:"template_id"`
	Attachments   []string `json:"attachments"`
}
