package services

import (
	"errors"
	"log"
	"path/filepath"

	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SponsorService struct {
	DB *gorm.DB
}

func NewSponsorService(db *gorm.DB) *SponsorService {
	return &SponsorService{DB: db}
}

func (s *SponsorService) CreateSponsor(c *fiber.Ctx) error {
	name := c.FormValue("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	sponsor := &models.Sponsor{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    c.FormValue("email"),
		Phone:    c.FormValue("phone"),
		Segment:  c.FormValue("segment"),
		SiteURL:  c.FormValue("site_url"),
		IsActive: true,
	}

	if logo, err := c.FormFile("logo"); err == nil && logo.Size > 0 {
		ext := filepath.Ext(logo.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := "logos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(logo, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload logo"})
		}
		sponsor.LogoURL = url
	}

	if err := s.DB.Create(sponsor).Error; err != nil {
		log.Printf("ERROR creating sponsor: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(sponsor)
}

func (s *SponsorService) GetAllSponsors(c *fiber.Ctx) error {
	var sponsors []models.Sponsor
	if err := s.DB.Order("name ASC").Find(&sponsors).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch sponsors"})
	}
	return c.JSON(sponsors)
}

func (s *SponsorService) GetSponsorByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var sponsor models.Sponsor
	err := s.DB.Preload("Products.Clues", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"sort_order\" ASC")
	}).First(&sponsor, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "sponsor not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(sponsor)
}

func (s *SponsorService) UpdateSponsor(c *fiber.Ctx) error {
	id := c.Params("id")
	var sponsor models.Sponsor
	if err := s.DB.First(&sponsor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "sponsor not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{}
	for field, col := range map[string]string{
		"name":     "name",
		"email":    "email",
		"phone":    "phone",
		"segment":  "segment",
		"site_url": "site_url",
	} {
		if v := c.FormValue(field); v != "" {
			updates[col] = v
		}
	}
	if v := c.FormValue("is_active"); v != "" {
		updates["is_active"] = v == "true"
	}
	if logo, err := c.FormFile("logo"); err == nil && logo.Size > 0 {
		ext := filepath.Ext(logo.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := "logos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(logo, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload logo"})
		}
		updates["logo_url"] = url
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&sponsor).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}
	return c.JSON(sponsor)
}

func (s *SponsorService) DeleteSponsor(c *fiber.Ctx) error {
	id := c.Params("id")

	// A sponsor with products in play cannot be removed.
	var productCount int64
	s.DB.Model(&models.Product{}).Where("sponsor_id = ?", id).Count(&productCount)
	if productCount > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "sponsor has registered products"})
	}

	result := s.DB.Delete(&models.Sponsor{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "sponsor not found"})
	}
	return c.JSON(fiber.Map{"message": "sponsor deleted"})
}
