package services

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"nexogeo-platform/middleware"
	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DrawService runs promotional draws among a promotion's participants.
// Distinct from the Caixa Misteriosa draw: here every participant is one
// ticket and prior winners of the same promotion are excluded.
type DrawService struct {
	DB  *gorm.DB
	rng *rand.Rand
}

func NewDrawService(db *gorm.DB) *DrawService {
	return &DrawService{
		DB:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EligibleParticipants filters out participants who already won a draw in
// this promotion.
func EligibleParticipants(participants []models.Participant, priorWinners map[string]bool) []models.Participant {
	var eligible []models.Participant
	for _, p := range participants {
		if !priorWinners[p.ID] {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// DrawWinners draws `count` winners (default 1) uniformly among eligible
// participants and persists each as a Draw row.
func (s *DrawService) DrawWinners(c *fiber.Ctx) error {
	promotionID := c.Params("id")

	type Req struct {
		PrizeName string `json:"prize_name"`
		Count     int    `json:"count"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	adminID, _ := c.Locals("user_id").(string)

	var results []models.Draw
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var promo models.Promotion
		if err := tx.First(&promo, "id = ?", promotionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Msg: "promotion not found"}
			}
			return err
		}

		var participants []models.Participant
		if err := tx.Where("promotion_id = ?", promotionID).Find(&participants).Error; err != nil {
			return err
		}

		priorWinners := map[string]bool{}
		var draws []models.Draw
		if err := tx.Where("promotion_id = ?", promotionID).Find(&draws).Error; err != nil {
			return err
		}
		for _, d := range draws {
			priorWinners[d.ParticipantID] = true
		}

		prizeName := req.PrizeName
		if prizeName == "" {
			prizeName = promo.PrizeName
		}

		for i := 0; i < req.Count; i++ {
			eligible := EligibleParticipants(participants, priorWinners)
			if len(eligible) == 0 {
				if i == 0 {
					return &ConflictError{Msg: "no eligible participants to draw from"}
				}
				break // drew fewer than requested; what we have stands
			}
			winner := eligible[s.rng.Intn(len(eligible))]
			draw := models.Draw{
				ID:            uuid.NewString(),
				PromotionID:   promotionID,
				ParticipantID: winner.ID,
				PrizeName:     prizeName,
				DrawnBy:       adminID,
			}
			if err := tx.Create(&draw).Error; err != nil {
				return err
			}
			priorWinners[winner.ID] = true
			draw.Participant = winner
			results = append(results, draw)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR drawing promotion winners: %v", err)
		}
		return respondError(c, err)
	}

	role := middleware.ResolveRole(c)
	out := make([]fiber.Map, 0, len(results))
	for _, d := range results {
		masked := utils.MaskParticipant(d.Participant, role, true)
		out = append(out, fiber.Map{
			"id":          d.ID,
			"prize_name":  d.PrizeName,
			"drawn_at":    d.DrawnAt,
			"participant": masked,
		})
	}
	log.Printf("🎉 Drew %d winner(s) for promotion %s", len(results), promotionID)
	return c.JSON(fiber.Map{"message": "draw complete", "winners": out})
}

// ListDraws returns a promotion's draw history, winners masked per role.
func (s *DrawService) ListDraws(c *fiber.Ctx) error {
	promotionID := c.Params("id")
	var draws []models.Draw
	err := s.DB.
		Preload("Participant").
		Where("promotion_id = ?", promotionID).
		Order("drawn_at DESC").
		Find(&draws).Error
	if err != nil {
		log.Printf("ERROR fetching draws: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch draws"})
	}

	role := middleware.ResolveRole(c)
	for i := range draws {
		draws[i].Participant = utils.MaskParticipant(draws[i].Participant, role, true)
	}
	return c.JSON(draws)
}
