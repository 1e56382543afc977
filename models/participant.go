package models

import (
	"time"
)

// Participant is one registration on a promotion's public form.
// Portuguese field names are kept on the wire — the front end and the
// LGPD masking rules are written against them.
type Participant struct {
	ID          string `json:"id" gorm:"primaryKey"`
	PromotionID string `json:"promotion_id" gorm:"not null;index"`

	Nome     string `json:"nome" gorm:"not null"`
	Telefone string `json:"telefone" gorm:"not null;index"`
	Email    string `json:"email"`
	Endereco string `json:"endereco"`
	Cidade   string `json:"cidade"`
	Bairro   string `json:"bairro"`

	// Resolved by the geocode backfill worker when absent at registration.
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	GeocodedAt *time.Time `json:"-"` // set once the worker has attempted this record

	// Acquisition channel (UTM), never masked — analytics only.
	OrigemSource string `json:"origem_source"`
	OrigemMedium string `json:"origem_medium"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Calculated field (not stored in DB)
	IsWinner bool `json:"is_winner,omitempty" gorm:"-"`
}
