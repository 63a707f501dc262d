package models

import (
	"time"
)

// Supported email providers
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
)

// EmailSetting represents a delivery provider configuration.
// At most one row may be active at a time; the constraint is enforced by a
// partial unique index created during migration.
type EmailSetting struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Provider string `json:"provider" gorm:"type:varchar(50);not null"` // smtp, sendgrid, mailgun

	// SMTP relay fields
	SMTPHost     string `json:"smtp_host,omitempty" gorm:"type:varchar(255)"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_username,omitempty" gorm:"type:varchar(255)"`
	SMTPPassword string `json:"-" gorm:"type:varchar(255)"`
	SMTPSecure   bool   `json:"smtp_secure"` // implicit TLS on 465, STARTTLS otherwise

	// Hosted API fields
	APIKey string `json:"-" gorm:"type:varchar(512)"`
	Domain string `json:"domain,omitempty" gorm:"type:varchar(255)"` // mailgun sending domain

	// Sender identity
	FromEmail string `json:"from_email" gorm:"type:varchar(255);not null"`
	FromName  string `json:"from_name" gorm:"type:varchar(255)"`

	Active    bool      `json:"active" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the EmailSetting model
func (EmailSetting) TableName() string {
	return "email_settings"
}

// CreateEmailSettingRequest represents the request to create a provider configuration
type CreateEmailSettingRequest struct {
	Provider     string `json:"provider" binding:"required,oneof=smtp sendgrid mailgun"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPSecure   bool   `json:"smtp_secure"`
	APIKey       string `json:"api_key"`
	Domain       string `json:"domain"`
	FromEmail    string `json:"from_email" binding:"required,email"`
	FromName     string `json:"from_name"`
}
