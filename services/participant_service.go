package services

import (
	"errors"
	"log"
	"strconv"

	"nexogeo-platform/middleware"
	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipantService struct {
	DB *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db}
}

// Participar handles the public participation form for a promotion,
// addressed by slug. One registration per phone per promotion.
func (s *ParticipantService) Participar(c *fiber.Ctx) error {
	promoSlug := c.Params("slug")

	type Req struct {
		Nome         string   `json:"nome"`
		Telefone     string   `json:"telefone"`
		Email        string   `json:"email"`
		Endereco     string   `json:"endereco"`
		Cidade       string   `json:"cidade"`
		Bairro       string   `json:"bairro"`
		Latitude     *float64 `json:"latitude,omitempty"`
		Longitude    *float64 `json:"longitude,omitempty"`
		OrigemSource string   `json:"origem_source"`
		OrigemMedium string   `json:"origem_medium"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Nome == "" || req.Telefone == "" {
		return c.Status(400).JSON(fiber.Map{"error": "nome and telefone are required"})
	}

	var promo models.Promotion
	if err := s.DB.First(&promo, "slug = ?", promoSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "promotion not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if promo.Status != models.PromotionStatusActive {
		return c.Status(409).JSON(fiber.Map{"error": "promotion is not open for participation"})
	}

	var existing models.Participant
	err := s.DB.Where("promotion_id = ? AND telefone = ?", promo.ID, req.Telefone).
		First(&existing).Error
	if err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "telefone already registered for this promotion"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("ERROR checking duplicate participation: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	participant := &models.Participant{
		ID:           uuid.NewString(),
		PromotionID:  promo.ID,
		Nome:         req.Nome,
		Telefone:     req.Telefone,
		Email:        req.Email,
		Endereco:     req.Endereco,
		Cidade:       req.Cidade,
		Bairro:       req.Bairro,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		OrigemSource: req.OrigemSource,
		OrigemMedium: req.OrigemMedium,
	}
	if err := s.DB.Create(participant).Error; err != nil {
		log.Printf("ERROR registering participant: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register participation"})
	}

	// Acknowledge with the masked public display form of the name.
	return c.Status(201).JSON(fiber.Map{
		"message":      "participação registrada",
		"id":           participant.ID,
		"display_name": utils.MaskName(participant.Nome),
	})
}

// ListParticipants returns a promotion's registrations with the LGPD
// visibility policy applied for the caller's role. Winner records unlock
// moderator visibility on identity fields.
func (s *ParticipantService) ListParticipants(c *fiber.Ctx) error {
	promotionID := c.Params("id")

	var promo models.Promotion
	if err := s.DB.First(&promo, "id = ?", promotionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "promotion not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var participants []models.Participant
	query := s.DB.Where("promotion_id = ?", promotionID).Order("created_at DESC")
	if cidade := c.Query("cidade"); cidade != "" {
		query = query.Where("cidade = ?", cidade)
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			query = query.Limit(n)
		}
	}
	if err := query.Find(&participants).Error; err != nil {
		log.Printf("ERROR fetching participants: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participants"})
	}

	winners := map[string]bool{}
	var draws []models.Draw
	if err := s.DB.Where("promotion_id = ?", promotionID).Find(&draws).Error; err == nil {
		for _, d := range draws {
			winners[d.ParticipantID] = true
		}
	}

	role := middleware.ResolveRole(c)
	out := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		masked := utils.MaskParticipant(p, role, winners[p.ID])
		masked.IsWinner = winners[p.ID]
		out = append(out, masked)
	}
	return c.JSON(out)
}

// ParticipantStats aggregates registrations by city/neighborhood/channel for
// the dashboard map. Coarse location and UTM fields only — nothing here is
// subject to masking.
func (s *ParticipantService) ParticipantStats(c *fiber.Ctx) error {
	promotionID := c.Params("id")
	type StatRow struct {
		Cidade       string `json:"cidade"`
		Bairro       string `json:"bairro"`
		OrigemSource string `json:"origem_source"`
		Total        int64  `json:"total"`
	}
	var rows []StatRow
	query := `
        SELECT cidade, bairro, origem_source, COUNT(*) AS total
        FROM participants
        WHERE promotion_id = ?
        GROUP BY cidade, bairro, origem_source
        ORDER BY total DESC
    `
	if err := s.DB.Raw(query, promotionID).Scan(&rows).Error; err != nil {
		log.Printf("ERROR aggregating participant stats: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to aggregate stats"})
	}
	return c.JSON(rows)
}
