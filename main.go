package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nexogeo-platform/handlers"
	"nexogeo-platform/middleware"
	"nexogeo-platform/models"
	"nexogeo-platform/services"
	"nexogeo-platform/utils"
	"nexogeo-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB — banners and product images only
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Sponsor{},
		&models.Product{},
		&models.ProductClue{},
		&models.Promotion{},
		&models.Participant{},
		&models.Draw{},
		&models.CaixaGame{},
		&models.GameSubmission{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// At most one Caixa Misteriosa round may be non-finished at a time. The
	// partial unique index makes the invariant hold in storage even when two
	// admin requests race past the application-level check.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_caixa_games_single_active
		ON caixa_games ((true))
		WHERE status IN ('accepting', 'closed')
	`).Error; err != nil {
		log.Fatal("failed to create single-active-round index:", err)
	}

	promotionService := services.NewPromotionService(db)
	participantService := services.NewParticipantService(db)
	drawService := services.NewDrawService(db)
	sponsorService := services.NewSponsorService(db)
	productService := services.NewProductService(db)
	caixaService := services.NewCaixaService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Geocode backfill for the dashboard heat map
	geocodeClient := workers.NewGeocodeClient(db)
	go workers.PollGeocode(ctx, geocodeClient, 30*time.Second)

	promotionService.StartPromotionScheduler()

	handlers.SetupCaixaRoutes(app, caixaService)
	handlers.SetupPromotionRoutes(app, promotionService, participantService, drawService)
	handlers.SetupCatalogRoutes(app, sponsorService, productService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Promotion scheduler running (every 1m)")
	log.Println("✅ Geocode backfill running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
