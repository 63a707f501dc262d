package models

import (
	"time"
)

// Participant represents a registered attendee of an event
type Participant struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventID   string    `json:"event_id" gorm:"not null;index;type:uuid"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index"`
	Phone     string    `json:"phone" gorm:"type:varchar(50)"`
	Company   string    `json:"company" gorm:"type:varchar(255);index"`
	JobTitle  string    `json:"job_title" gorm:"type:varchar(255);index"`
	QRCode    string    `json:"qr_code,omitempty" gorm:"type:text"` // data:image/png;base64 payload generated at registration
	CheckedIn bool      `json:"checked_in" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Event Event `json:"-" gorm:"foreignKey:EventID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Participant model
func (Participant) TableName() string {
	return "participants"
}

// CreateParticipantRequest represents the request to register a participant
type CreateParticipantRequest struct {
	Name     string `json:"name" binding:"required" example:"Jane Doe"`
	Email    string `json:"email" binding:"required,email" example:"jane@acme.com"`
	Phone    string `json:"phone" example:"+254700000000"`
	Company  string `json:"company" example:"Acme"`
	JobTitle string `json:"job_title" example:"CTO"`
	QRCode   string `json:"qr_code"`
}

// UpdateParticipantRequest represents the request to update a participant
type UpdateParticipantRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	JobTitle string `json:"job_title"`
	QRCode   string `json:"qr_code"`
}
