package models

import (
	"time"
)

// Event represents an event that participants register for
type Event struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Venue       string     `json:"venue" gorm:"type:varchar(255)"`
	StartDate   *time.Time `json:"start_date" gorm:"index"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:EventID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Name        string     `json:"name" binding:"required" example:"Tech Summit 2025"`
	Description string     `json:"description"`
	Venue       string     `json:"venue" example:"Convention Center, Hall A"`
	StartDate   *time.Time `json:"start_date" example:"2025-10-01T09:00:00Z"`
	EndDate     *time.Time `json:"end_date" example:"2025-10-02T18:00:00Z"`
}

// UpdateEventRequest represents the request to update an event
type UpdateEventRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}
