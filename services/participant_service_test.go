package services

import (
	"os"
	"testing"

	"nexogeo-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Participation-form tests run against a real PostgreSQL database, same
// harness as the round lifecycle tests. Set TEST_DATABASE_URL to run them.
func setupPromotionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database-backed tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrator().DropTable(
		&models.Draw{},
		&models.Participant{},
		&models.Promotion{},
		&models.Sponsor{},
	); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Sponsor{},
		&models.Promotion{},
		&models.Participant{},
		&models.Draw{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedPromotion(t *testing.T, db *gorm.DB, name, promoSlug, status string) *models.Promotion {
	t.Helper()

	sponsor := models.Sponsor{ID: uuid.NewString(), Name: "Mercado Central", IsActive: true}
	if err := db.Create(&sponsor).Error; err != nil {
		t.Fatalf("failed to seed sponsor: %v", err)
	}
	promo := models.Promotion{
		ID:        uuid.NewString(),
		SponsorID: sponsor.ID,
		Name:      name,
		Slug:      promoSlug,
		PrizeName: "Cesta de Compras",
		Status:    status,
	}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("failed to seed promotion: %v", err)
	}
	return &promo
}

func newParticipationApp(db *gorm.DB) *fiber.App {
	svc := NewParticipantService(db)
	app := fiber.New()
	app.Post("/promotions/:slug/participar", svc.Participar)
	return app
}

func TestParticipar(t *testing.T) {
	db := setupPromotionTestDB(t)
	promo := seedPromotion(t, db, "Show de Prêmios", "show-de-premios", models.PromotionStatusActive)
	app := newParticipationApp(db)

	// First registration is accepted; the acknowledgement carries the
	// public-display mask of the name, never the raw one.
	status, body := postJSON(t, app, "/promotions/show-de-premios/participar", fiber.Map{
		"nome":          "Ana Souza",
		"telefone":      "11988887777",
		"cidade":        "São Paulo",
		"bairro":        "Centro",
		"origem_source": "instagram",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("participar: got %d (%v)", status, body)
	}
	if body["display_name"] != "Ana S***a" {
		t.Errorf("display_name must be masked, got %v", body["display_name"])
	}

	// Same phone on the same promotion must 409.
	status, _ = postJSON(t, app, "/promotions/show-de-premios/participar", fiber.Map{
		"nome":     "Ana Souza",
		"telefone": "11988887777",
	})
	if status != fiber.StatusConflict {
		t.Errorf("duplicate telefone: expected 409, got %d", status)
	}

	// A different phone registers normally.
	status, _ = postJSON(t, app, "/promotions/show-de-premios/participar", fiber.Map{
		"nome":     "Bruno Costa",
		"telefone": "21912345678",
	})
	if status != fiber.StatusCreated {
		t.Errorf("second participant: expected 201, got %d", status)
	}

	var count int64
	db.Model(&models.Participant{}).Where("promotion_id = ?", promo.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 registrations persisted, got %d", count)
	}
}

func TestParticiparValidation(t *testing.T) {
	db := setupPromotionTestDB(t)
	seedPromotion(t, db, "Show de Prêmios", "show-de-premios", models.PromotionStatusActive)
	seedPromotion(t, db, "Em Breve", "em-breve", models.PromotionStatusDraft)
	app := newParticipationApp(db)

	// Missing telefone is rejected before touching the promotion.
	status, _ := postJSON(t, app, "/promotions/show-de-premios/participar", fiber.Map{
		"nome": "Sem Telefone",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("missing telefone: expected 400, got %d", status)
	}

	// Missing nome likewise.
	status, _ = postJSON(t, app, "/promotions/show-de-premios/participar", fiber.Map{
		"telefone": "11988887777",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("missing nome: expected 400, got %d", status)
	}

	// Unknown slug → 404.
	status, _ = postJSON(t, app, "/promotions/nao-existe/participar", fiber.Map{
		"nome":     "Clara Lima",
		"telefone": "11911112222",
	})
	if status != fiber.StatusNotFound {
		t.Errorf("unknown slug: expected 404, got %d", status)
	}

	// A promotion that is not active does not take registrations.
	status, _ = postJSON(t, app, "/promotions/em-breve/participar", fiber.Map{
		"nome":     "Clara Lima",
		"telefone": "11911112222",
	})
	if status != fiber.StatusConflict {
		t.Errorf("draft promotion: expected 409, got %d", status)
	}

	var count int64
	db.Model(&models.Participant{}).Count(&count)
	if count != 0 {
		t.Errorf("no registration should have persisted, got %d", count)
	}
}
