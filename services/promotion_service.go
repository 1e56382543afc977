package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"nexogeo-platform/middleware"
	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type PromotionService struct {
	DB *gorm.DB
}

func NewPromotionService(db *gorm.DB) *PromotionService {
	return &PromotionService{DB: db}
}

// CreatePromotion creates a new campaign as draft (or scheduled when
// start_at is provided). The public form URL segment comes from the name.
func (s *PromotionService) CreatePromotion(c *fiber.Ctx) error {
	name := c.FormValue("name")
	sponsorID := c.FormValue("sponsor_id")
	description := c.FormValue("description")
	rules := c.FormValue("rules")
	prizeName := c.FormValue("prize_name")
	startAtStr := c.FormValue("start_at")
	endAtStr := c.FormValue("end_at")

	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	var startAt, endAt *time.Time
	if startAtStr != "" {
		t, err := time.Parse(time.RFC3339, startAtStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
		}
		startAt = &t
	}
	if endAtStr != "" {
		t, err := time.Parse(time.RFC3339, endAtStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_at (use RFC3339)"})
		}
		endAt = &t
	}

	if sponsorID != "" {
		var sponsor models.Sponsor
		if err := s.DB.First(&sponsor, "id = ?", sponsorID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "sponsor_id not found"})
		}
	}

	// Slug must be unique — append a short suffix on collision.
	promoSlug := slug.Make(name)
	var count int64
	s.DB.Unscoped().Model(&models.Promotion{}).Where("slug = ?", promoSlug).Count(&count)
	if count > 0 {
		promoSlug = fmt.Sprintf("%s-%s", promoSlug, uuid.NewString()[:8])
	}

	var bannerURL string
	if banner, err := c.FormFile("banner"); err == nil && banner.Size > 0 {
		ext := filepath.Ext(banner.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "banners/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(banner, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
		}
		bannerURL = url
	}

	status := models.PromotionStatusDraft
	if startAt != nil {
		status = models.PromotionStatusScheduled
	}

	promo := &models.Promotion{
		ID:          uuid.NewString(),
		SponsorID:   sponsorID,
		Name:        name,
		Slug:        promoSlug,
		Description: description,
		Rules:       rules,
		PrizeName:   prizeName,
		BannerURL:   bannerURL,
		Status:      status,
		StartAt:     startAt,
		EndAt:       endAt,
	}
	if err := s.DB.Create(promo).Error; err != nil {
		log.Printf("ERROR creating promotion: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(promo)
}

// GetAllPromotions is the dashboard list — every status, with participant
// counts aggregated in one query.
func (s *PromotionService) GetAllPromotions(c *fiber.Ctx) error {
	type PromotionRow struct {
		ID                string     `json:"id"`
		Name              string     `json:"name"`
		Slug              string     `json:"slug"`
		Status            string     `json:"status"`
		PrizeName         string     `json:"prize_name"`
		BannerURL         string     `json:"banner_url"`
		SponsorID         string     `json:"sponsor_id"`
		SponsorName       string     `json:"sponsor_name"`
		StartAt           *time.Time `json:"start_at,omitempty"`
		EndAt             *time.Time `json:"end_at,omitempty"`
		CreatedAt         time.Time  `json:"created_at"`
		ParticipantsCount int64      `json:"participants_count"`
		DrawsCount        int64      `json:"draws_count"`
	}
	var rows []PromotionRow
	query := `
        SELECT
            p.id,
            p.name,
            p.slug,
            p.status,
            p.prize_name,
            p.banner_url,
            p.sponsor_id,
            s.name AS sponsor_name,
            p.start_at,
            p.end_at,
            p.created_at,
            COUNT(DISTINCT pa.id) AS participants_count,
            COUNT(DISTINCT d.id)  AS draws_count
        FROM promotions p
        LEFT JOIN sponsors s ON p.sponsor_id = s.id
        LEFT JOIN participants pa ON p.id = pa.promotion_id
        LEFT JOIN draws d ON p.id = d.promotion_id
        WHERE p.deleted_at IS NULL
        GROUP BY p.id, s.id
        ORDER BY p.created_at DESC
    `
	if err := s.DB.Raw(query).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching promotions: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch promotions"})
	}
	return c.JSON(rows)
}

// GetActivePromotions is the public listing behind the participation form.
func (s *PromotionService) GetActivePromotions(c *fiber.Ctx) error {
	var promos []models.Promotion
	err := s.DB.
		Preload("Sponsor").
		Where("status = ?", models.PromotionStatusActive).
		Order("created_at DESC").
		Find(&promos).Error
	if err != nil {
		log.Printf("ERROR fetching active promotions: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch promotions"})
	}
	return c.JSON(promos)
}

// GetPromotionByID returns full detail for the dashboard.
func (s *PromotionService) GetPromotionByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var promo models.Promotion
	err := s.DB.
		Preload("Sponsor").
		Preload("Draws", func(db *gorm.DB) *gorm.DB {
			return db.Order("drawn_at DESC")
		}).
		Preload("Draws.Participant").
		First(&promo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "promotion not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	s.DB.Model(&models.Participant{}).Where("promotion_id = ?", id).Count(&promo.ParticipantsCount)

	role := middleware.ResolveRole(c)
	for i := range promo.Draws {
		promo.Draws[i].Participant = utils.MaskParticipant(promo.Draws[i].Participant, role, true)
		promo.Draws[i].Participant.IsWinner = true
	}
	return c.JSON(promo)
}

// UpdatePromotion edits campaign fields. The slug is stable once created —
// the public form URL is already printed on flyers.
func (s *PromotionService) UpdatePromotion(c *fiber.Ctx) error {
	id := c.Params("id")
	var promo models.Promotion
	if err := s.DB.First(&promo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "promotion not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{}
	for field, col := range map[string]string{
		"name":        "name",
		"description": "description",
		"rules":       "rules",
		"prize_name":  "prize_name",
		"status":      "status",
	} {
		if v := c.FormValue(field); v != "" {
			updates[col] = v
		}
	}
	if startAtStr := c.FormValue("start_at"); startAtStr != "" {
		t, err := time.Parse(time.RFC3339, startAtStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
		}
		updates["start_at"] = &t
	}
	if endAtStr := c.FormValue("end_at"); endAtStr != "" {
		t, err := time.Parse(time.RFC3339, endAtStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_at (use RFC3339)"})
		}
		updates["end_at"] = &t
	}

	if banner, err := c.FormFile("banner"); err == nil && banner.Size > 0 {
		ext := filepath.Ext(banner.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "banners/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(banner, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
		}
		updates["banner_url"] = url
	}

	if len(updates) == 0 {
		return c.JSON(promo)
	}
	if err := s.DB.Model(&promo).Updates(updates).Error; err != nil {
		log.Printf("ERROR updating promotion %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	return c.JSON(promo)
}

// DeletePromotion soft-deletes a campaign. Participants and draw history
// stay in place for audits.
func (s *PromotionService) DeletePromotion(c *fiber.Ctx) error {
	id := c.Params("id")
	result := s.DB.Delete(&models.Promotion{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "promotion not found"})
	}
	return c.JSON(fiber.Map{"message": "promotion deleted"})
}
