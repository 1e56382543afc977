package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PromotionStatusDraft     = "draft"
	PromotionStatusScheduled = "scheduled"
	PromotionStatusActive    = "active"
	PromotionStatusEnded     = "ended"
)

// Promotion is one giveaway campaign with its own participation form.
type Promotion struct {
	ID          string `json:"id" gorm:"primaryKey"`
	SponsorID   string `json:"sponsor_id" gorm:"index"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"` // public form URL segment
	Description string `json:"description"`
	Rules       string `json:"rules" gorm:"type:text"`
	BannerURL   string `json:"banner_url"`
	PrizeName   string `json:"prize_name"`
	Status      string `json:"status" gorm:"default:'draft'"`

	StartAt   *time.Time     `json:"start_at,omitempty"`
	EndAt     *time.Time     `json:"end_at,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Sponsor      Sponsor       `json:"sponsor,omitempty" gorm:"foreignKey:SponsorID"`
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:PromotionID"`
	Draws        []Draw        `json:"draws,omitempty" gorm:"foreignKey:PromotionID"`

	// Calculated fields (not stored in DB)
	ParticipantsCount int64 `json:"participants_count,omitempty" gorm:"-"`
}
