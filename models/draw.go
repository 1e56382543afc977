package models

import (
	"time"
)

// Draw records one promotional draw result. Historical rows are never
// deleted — they are the audit trail shown on the dashboard.
type Draw struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	PromotionID   string    `json:"promotion_id" gorm:"not null;index"`
	ParticipantID string    `json:"participant_id" gorm:"not null;index"`
	PrizeName     string    `json:"prize_name"`
	DrawnAt       time.Time `json:"drawn_at" gorm:"autoCreateTime"`
	DrawnBy       string    `json:"drawn_by"` // admin user id from the gateway context

	// Relationships
	Participant Participant `json:"participant,omitempty" gorm:"foreignKey:ParticipantID"`
}
