package models

import (
	"time"
)

// A product carries exactly this many ordered clues, hardest first.
const ClueCount = 5

// Product is a mystery-game prize owned by a sponsor. Once a finished game
// references it, the record is frozen for audit integrity.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	SponsorID string    `json:"sponsor_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	ImageURL  string    `json:"image_url"`
	Value     float64   `json:"value" gorm:"default:0"` // retail value, for the dashboard
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Sponsor Sponsor       `json:"sponsor,omitempty" gorm:"foreignKey:SponsorID"`
	Clues   []ProductClue `json:"clues,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductClue is one of the five ordered hints about a product.
type ProductClue struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProductID string `json:"product_id" gorm:"not null;index"`
	SortOrder int    `json:"sort_order" gorm:"column:sort_order;default:0"`
	Text      string `json:"text" gorm:"not null"`
}
