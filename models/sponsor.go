package models

import (
	"time"

	"gorm.io/gorm"
)

// Sponsor is a local business backing one or more promotions/products.
type Sponsor struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Segment   string         `json:"segment"` // e.g., "supermercado", "farmácia"
	LogoURL   string         `json:"logo_url"`
	SiteURL   string         `json:"site_url,omitempty"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SponsorID"`
}
