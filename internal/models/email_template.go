package models

import (
	"time"
)

// EmailTemplate represents a reusable email template.
// Attachments holds descriptor strings: a bare URL, "QR:<participantID>"
// to generate a QR code per recipient, or "QRDATA:<participantID>:<dataURL>"
// for a pre-encoded image payload. The per-recipient forms use the
// placeholder "{{participant_id}}" which is substituted at dispatch time.
type EmailTemplate struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventID     *string    `json:"event_id" gorm:"index;type:uuid"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Subject     string     `json:"subject" gorm:"type:varchar(255);not null"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	Attachments StringList `json:"attachments" gorm:"type:jsonb"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the EmailTemplate model
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// CreateEmailTemplateRequest represents the request to create a template
type CreateEmailTemplateRequest struct {
	EventID     *string  `json:"event_id"`
	Name        string   `json:"name" binding:"required" example:"Welcome email"`
	Subject     string   `json:"subject" binding:"required" example:"Welcome to {{event}}!"`
	Body        string   `json:"body" binding:"required"`
	Attachments []string `json:"attachments"`
}

// UpdateEmailTemplateRequest represents the request to update a template
type UpdateEmailTemplateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Subject     string   `json:"subject" binding:"required"`
	Body        string   `json:"body" binding:"required"`
	Attachments []string `json:"attachments"`
}
