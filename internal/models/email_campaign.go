package models

import (
	"time"
)

// Campaign statuses. Transitions only move forward:
// draft -> sending -> {completed, failed, cancelled}.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
	CampaignStatusFailed    = "failed"
	CampaignStatusCancelled = "cancelled"
)

// Campaign target types
const (
	TargetAll      = "all"
	TargetFiltered = "filtered"
	TargetManual   = "manual"
)

// EmailCampaign represents a bulk dispatch job targeting a resolved
// recipient set with one template. TemplateName and Subject are snapshots
// taken at creation so later template edits don't rewrite history.
type EmailCampaign struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventID      string `json:"event_id" gorm:"not null;index;type:uuid"`
	Channel      string `json:"channel" gorm:"type:varchar(20);default:'email'"`
	TemplateID   string `json:"template_id" gorm:"type:uuid"`
	TemplateName string `json:"template_name" gorm:"type:varchar(255)"`
	Subject      string `json:"subject" gorm:"type:varchar(255)"`

	TargetType   string     `json:"target_type" gorm:"type:varchar(20);default:'all'"` // all, filtered, manual
	TargetFilter JSON       `json:"target_filter" gorm:"type:jsonb"`
	TargetIDs    StringList `json:"target_ids" gorm:"type:jsonb"`

	Status          string `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	TotalRecipients int    `json:"total_recipients" gorm:"default:0"`
	SentCount       int    `json:"sent_count" gorm:"default:0"`
	FailedCount     int    `json:"failed_count" gorm:"default:0"`

	SentAt      *time.Time `json:"sent_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedBy   string     `json:"created_by" gorm:"type:uuid"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Event Event `json:"-" gorm:"foreignKey:EventID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the EmailCampaign model
func (EmailCampaign) TableName() string {
	return "email_campaigns"
}

// PendingCount is always derived, never stored
func (c *EmailCampaign) PendingCount() int {
	return c.TotalRecipients - c.SentCount - c.FailedCount
}

// IsTerminal reports whether the campaign permits no further transitions
func (c *EmailCampaign) IsTerminal() bool {
	switch c.Status {
	case CampaignStatusCompleted, CampaignStatusFailed, CampaignStatusCancelled:
		return true
	}
	return false
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	EventID      string            `json:"event_id" binding:"required"`
	TemplateID   string            `json:"template_id" binding:"required"`
	TargetType   string            `json:"target_type" binding:"required,oneof=all filtered manual"`
	TargetFilter map[string]string `json:"target_filter"`
	TargetIDs    []string          `json:"target_ids"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID              string     `json:"id"`
	EventID         string     `json:"event_id"`
	Channel         string     `json:"channel"`
	TemplateID      string     `json:"template_id"`
	TemplateName    string     `json:"template_name"`
	Subject         string     `json:"subject"`
	TargetType      string     `json:"target_type"`
	Status          string     `json:"status"`
	TotalRecipients int        `json:"total_recipients"`
	SentCount       int        `json:"sent_count"`
	FailedCount     int        `json:"failed_count"`
	PendingCount    int        `json:"pending_count"`
	SentAt          *time.Time `json:"sent_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
}

// ToResponse converts the campaign to its response DTO
func (c *EmailCampaign) ToResponse() *CampaignResponse {
	return &CampaignResponse{
		ID:              c.ID,
		EventID:         c.EventID,
		Channel:         c.Channel,
		TemplateID:      c.TemplateID,
		TemplateName:    c.TemplateName,
		Subject:         c.Subject,
		TargetType:      c.TargetType,
		Status:          c.Status,
		TotalRecipients: c.TotalRecipients,
		SentCount:       c.SentCount,
		FailedCount:     c.FailedCount,
		PendingCount:    c.PendingCount(),
		SentAt:          c.SentAt,
		CompletedAt:     c.CompletedAt,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}
