package services

import (
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"nexogeo-platform/middleware"
	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaixaService runs the Caixa Misteriosa rounds. Every mutation executes as
// an atomic read-modify-write transaction against the single active game row
// so concurrent admin clicks cannot produce lost updates; the partial unique
// index installed in main.go backs the single-active-round invariant at the
// storage layer.
type CaixaService struct {
	DB  *gorm.DB
	rng *rand.Rand
}

func NewCaixaService(db *gorm.DB) *CaixaService {
	return &CaixaService{
		DB:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// lockCurrentGame fetches the non-finished game FOR UPDATE, or NotFoundError.
func lockCurrentGame(tx *gorm.DB) (*models.CaixaGame, error) {
	var game models.CaixaGame
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status IN ?", []string{models.GameStatusAccepting, models.GameStatusClosed}).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Msg: "no active round"}
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Live returns the current round as the public widget renders it: revealed
// clues only, submissions masked for public display, and the answer hidden
// until the round finishes.
func (s *CaixaService) Live(c *fiber.Ctx) error {
	var game models.CaixaGame
	err := s.DB.
		Preload("Product.Clues", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		Preload("Product.Sponsor").
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no round has been played yet"})
	}
	if err != nil {
		log.Printf("ERROR fetching live round: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch live round"})
	}

	finished := game.Status == models.GameStatusFinished

	clues := make([]fiber.Map, 0, game.RevealedCluesCount)
	for _, clue := range game.Product.Clues {
		if clue.SortOrder < game.RevealedCluesCount {
			clues = append(clues, fiber.Map{"order": clue.SortOrder, "text": clue.Text})
		}
	}

	subs := make([]fiber.Map, 0, len(game.Submissions))
	for _, sub := range game.Submissions {
		isWinner := game.WinnerSubmissionID != nil && *game.WinnerSubmissionID == sub.ID
		masked := utils.MaskSubmission(sub, utils.RoleViewer, false)
		entry := fiber.Map{
			"id":                masked.ID,
			"user_name":         masked.UserName,
			"user_city":         masked.UserCity,
			"user_neighborhood": masked.UserNeighborhood,
			"submission_number": masked.SubmissionNumber,
			"created_at":        masked.CreatedAt,
			"is_winner":         isWinner,
		}
		if finished {
			entry["guess"] = masked.Guess
			entry["is_correct"] = masked.IsCorrect
		}
		subs = append(subs, entry)
	}

	resp := fiber.Map{
		"game": fiber.Map{
			"id":                   game.ID,
			"status":               game.Status,
			"revealed_clues_count": game.RevealedCluesCount,
			"created_at":           game.CreatedAt,
			"ended_at":             game.EndedAt,
		},
		"clues":       clues,
		"submissions": subs,
		"sponsor":     fiber.Map{"name": game.Product.Sponsor.Name, "logo_url": game.Product.Sponsor.LogoURL},
	}

	// The product name is the answer — only reveal it once the round is over.
	if finished {
		resp["product"] = fiber.Map{
			"id":        game.Product.ID,
			"name":      game.Product.Name,
			"image_url": game.Product.ImageURL,
		}
		var winner *fiber.Map
		if game.WinnerSubmissionID != nil {
			for _, sub := range game.Submissions {
				if sub.ID == *game.WinnerSubmissionID {
					masked := utils.MaskSubmission(sub, utils.RoleViewer, false)
					winner = &fiber.Map{
						"submission_id":     sub.ID,
						"user_name":         masked.UserName,
						"user_city":         sub.UserCity,
						"user_neighborhood": sub.UserNeighborhood,
						"guess":             sub.Guess,
					}
					break
				}
			}
		}
		resp["winner"] = winner
	}

	return c.JSON(resp)
}

// Start opens a new round for a product. Fails with 409 if a round is
// already accepting or closed — the check runs inside the transaction and the
// partial unique index catches the race two concurrent admins could win.
func (s *CaixaService) Start(c *fiber.Ctx) error {
	type Req struct {
		ProductID string `json:"product_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product_id is required"})
	}

	var game *models.CaixaGame
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Clues").First(&product, "id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Msg: "product not found"}
			}
			return err
		}
		if len(product.Clues) != models.ClueCount {
			return &ValidationError{Msg: "product must have exactly 5 clues before a round can start"}
		}

		var active models.CaixaGame
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status IN ?", []string{models.GameStatusAccepting, models.GameStatusClosed}).
			First(&active).Error
		if err == nil {
			return &ConflictError{Msg: "a round is already active"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		game = &models.CaixaGame{
			ID:                 uuid.NewString(),
			ProductID:          product.ID,
			Status:             models.GameStatusAccepting,
			RevealedCluesCount: 1, // first clue visible immediately
		}
		return tx.Create(game).Error
	})
	if err != nil {
		// The partial unique index fires when two starts race past the check.
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			err = &ConflictError{Msg: "a round is already active"}
		}
		if !isDomainError(err) {
			log.Printf("ERROR starting round: %v", err)
		}
		return respondError(c, err)
	}

	log.Printf("🎁 Caixa Misteriosa round %s started (product %s)", game.ID, game.ProductID)
	return c.Status(fiber.StatusCreated).JSON(game)
}

// RevealClue makes the next clue visible. 409 unless accepting and below 5.
func (s *CaixaService) RevealClue(c *fiber.Ctx) error {
	var game *models.CaixaGame
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		g, err := lockCurrentGame(tx)
		if err != nil {
			return err
		}
		if err := CanRevealClue(g); err != nil {
			return err
		}
		g.RevealedCluesCount++
		game = g
		return tx.Model(g).Update("revealed_clues_count", g.RevealedCluesCount).Error
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR revealing clue: %v", err)
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "clue revealed", "revealed_clues_count": game.RevealedCluesCount})
}

// EndSubmissions freezes the submission set (accepting → closed).
func (s *CaixaService) EndSubmissions(c *fiber.Ctx) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		g, err := lockCurrentGame(tx)
		if err != nil {
			return err
		}
		if err := CanEndSubmissions(g); err != nil {
			return err
		}
		return tx.Model(g).Update("status", models.GameStatusClosed).Error
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR closing submissions: %v", err)
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "submissions closed"})
}

// DrawWinner finishes a closed round: recomputes the correct-submission set
// against the product name, draws one uniformly at random, and records the
// result. A round with zero correct guesses finishes without a winner — that
// is a valid outcome, not an error.
func (s *CaixaService) DrawWinner(c *fiber.Ctx) error {
	var winner *models.GameSubmission
	var total, correct int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		g, err := lockCurrentGame(tx)
		if err != nil {
			return err
		}
		if err := CanDrawWinner(g); err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", g.ProductID).Error; err != nil {
			return err
		}

		var subs []models.GameSubmission
		if err := tx.Where("game_id = ?", g.ID).Order("created_at ASC").Find(&subs).Error; err != nil {
			return err
		}
		total = len(subs)

		// Re-verify is_correct at draw time: the flag written at submission
		// time is only a cache of this computation.
		candidates := CorrectSubmissions(subs, product.Name)
		correct = len(candidates)
		for i := range subs {
			isCorrect := GuessMatches(subs[i].Guess, product.Name)
			if subs[i].IsCorrect == nil || *subs[i].IsCorrect != isCorrect {
				if err := tx.Model(&subs[i]).Update("is_correct", isCorrect).Error; err != nil {
					return err
				}
			}
		}

		winner = PickWinner(candidates, s.rng)

		now := time.Now()
		updates := map[string]interface{}{
			"status":   models.GameStatusFinished,
			"ended_at": &now,
		}
		if winner != nil {
			updates["winner_submission_id"] = winner.ID
		}
		return tx.Model(g).Updates(updates).Error
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR drawing winner: %v", err)
		}
		return respondError(c, err)
	}

	if winner == nil {
		log.Printf("🎁 Round finished without winner (%d submissions, 0 correct)", total)
		return c.JSON(fiber.Map{
			"message":             "round finished without winner",
			"winner":              nil,
			"total_submissions":   total,
			"correct_submissions": 0,
		})
	}

	log.Printf("🏆 Round winner drawn: submission %s (%d/%d correct)", winner.ID, correct, total)
	// The announcement is relayed verbatim to the public live feed, so the
	// winner's name carries the public-display mask even for the admin caller.
	// Admins read the unmasked record via the submissions listing.
	masked := utils.MaskSubmission(*winner, utils.RoleViewer, false)
	return c.JSON(fiber.Map{
		"message": "winner drawn",
		"winner": fiber.Map{
			"submission_id":     winner.ID,
			"user_name":         masked.UserName,
			"user_city":         winner.UserCity,
			"user_neighborhood": winner.UserNeighborhood,
			"guess":             winner.Guess,
		},
		"total_submissions":   total,
		"correct_submissions": correct,
	})
}

// Reset is the administrative escape hatch: it force-finishes the active
// round (without a winner) from any state. Historical data stays untouched.
// Resetting with no active round is a no-op, not an error.
func (s *CaixaService) Reset(c *fiber.Ctx) error {
	var ended bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		g, err := lockCurrentGame(tx)
		if err != nil {
			var notFound *NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		now := time.Now()
		ended = true
		return tx.Model(g).Updates(map[string]interface{}{
			"status":   models.GameStatusFinished,
			"ended_at": &now,
		}).Error
	})
	if err != nil {
		log.Printf("ERROR resetting round: %v", err)
		return respondError(c, err)
	}
	if ended {
		log.Println("🎁 Active round force-finished by reset")
	}
	return c.JSON(fiber.Map{"message": "reset complete"})
}

// Submit accepts a guess from the public widget while the round is accepting.
// The game row lock serializes numbering so the per-(game, phone) sequence
// never duplicates under concurrent submissions.
func (s *CaixaService) Submit(c *fiber.Ctx) error {
	type Req struct {
		GameID           string `json:"game_id"`
		UserName         string `json:"user_name"`
		UserPhone        string `json:"user_phone"`
		UserNeighborhood string `json:"user_neighborhood"`
		UserCity         string `json:"user_city"`
		Guess            string `json:"guess"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.UserName == "" || req.UserPhone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_name and user_phone are required"})
	}
	if strings.TrimSpace(req.Guess) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "guess is required"})
	}

	var sub *models.GameSubmission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.CaixaGame
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ?", req.GameID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Msg: "game not found"}
		}
		if err != nil {
			return err
		}
		if err := CanAcceptSubmission(&game); err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", game.ProductID).Error; err != nil {
			return err
		}

		var lastNumber int
		row := tx.Model(&models.GameSubmission{}).
			Where("game_id = ? AND user_phone = ?", game.ID, req.UserPhone).
			Select("COALESCE(MAX(submission_number), 0)")
		if err := row.Scan(&lastNumber).Error; err != nil {
			return err
		}

		isCorrect := GuessMatches(req.Guess, product.Name)
		sub = &models.GameSubmission{
			ID:               uuid.NewString(),
			GameID:           game.ID,
			UserName:         req.UserName,
			UserPhone:        req.UserPhone,
			UserNeighborhood: req.UserNeighborhood,
			UserCity:         req.UserCity,
			Guess:            req.Guess,
			IsCorrect:        &isCorrect,
			SubmissionNumber: lastNumber + 1,
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR accepting submission: %v", err)
		}
		return respondError(c, err)
	}

	// is_correct is never echoed back — it would leak the answer.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":                sub.ID,
		"game_id":           sub.GameID,
		"submission_number": sub.SubmissionNumber,
		"created_at":        sub.CreatedAt,
	})
}

// ListGames returns the round history for the dashboard.
func (s *CaixaService) ListGames(c *fiber.Ctx) error {
	var games []models.CaixaGame
	err := s.DB.
		Preload("Product").
		Preload("Product.Sponsor").
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		log.Printf("ERROR fetching rounds: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rounds"})
	}
	return c.JSON(games)
}

// ListSubmissions returns a round's guesses, masked for the caller's role.
func (s *CaixaService) ListSubmissions(c *fiber.Ctx) error {
	gameID := c.Params("id")

	var game models.CaixaGame
	if err := s.DB.First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var subs []models.GameSubmission
	if err := s.DB.Where("game_id = ?", gameID).Order("created_at ASC").Find(&subs).Error; err != nil {
		log.Printf("ERROR fetching submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}

	role := middleware.ResolveRole(c)
	out := make([]models.GameSubmission, 0, len(subs))
	for _, sub := range subs {
		isWinner := game.WinnerSubmissionID != nil && *game.WinnerSubmissionID == sub.ID
		out = append(out, utils.MaskSubmission(sub, role, isWinner))
	}
	return c.JSON(out)
}

func isDomainError(err error) bool {
	var conflict *ConflictError
	var invalid *InvalidStateError
	var notFound *NotFoundError
	var validation *ValidationError
	return errors.As(err, &conflict) || errors.As(err, &invalid) ||
		errors.As(err, &notFound) || errors.As(err, &validation)
}
