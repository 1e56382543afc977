package handlers

import (
	"nexogeo-platform/middleware"
	"nexogeo-platform/services"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupPromotionRoutes(
	app *fiber.App,
	promotionService *services.PromotionService,
	participantService *services.ParticipantService,
	drawService *services.DrawService,
) {
	// 🔓 Public routes — participation form and active campaign listing
	app.Get("/promotions/active", promotionService.GetActivePromotions)
	app.Post("/promotions/:slug/participar", participantService.Participar)

	// 🔐 Dashboard routes — require user context; reads are open to every
	// role (the LGPD policy masks them), writes are editor+
	secured := app.Group("/promotions", middleware.UserContextMiddleware())
	secured.Get("/", promotionService.GetAllPromotions)
	secured.Get("/:id", promotionService.GetPromotionByID)
	secured.Get("/:id/participants", participantService.ListParticipants)
	secured.Get("/:id/participants/stats", participantService.ParticipantStats)
	secured.Get("/:id/draws", drawService.ListDraws)

	editor := secured.Group("/", middleware.RequireRole(utils.RoleEditor))
	editor.Post("/", promotionService.CreatePromotion)
	editor.Put("/:id", promotionService.UpdatePromotion)
	editor.Delete("/:id", promotionService.DeletePromotion)

	// 🔒 Drawing winners is admin-only
	secured.Post("/:id/draw", middleware.RequireRole(utils.RoleAdmin), drawService.DrawWinners)
}

func SetupCatalogRoutes(
	app *fiber.App,
	sponsorService *services.SponsorService,
	productService *services.ProductService,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/sponsors", sponsorService.GetAllSponsors)
	secured.Get("/sponsors/:id", sponsorService.GetSponsorByID)
	secured.Get("/products", productService.GetAllProducts)
	secured.Get("/products/:id", productService.GetProductByID)

	editor := secured.Group("/", middleware.RequireRole(utils.RoleEditor))
	editor.Post("/sponsors", sponsorService.CreateSponsor)
	editor.Put("/sponsors/:id", sponsorService.UpdateSponsor)
	editor.Delete("/sponsors/:id", sponsorService.DeleteSponsor)
	editor.Post("/products", productService.CreateProduct)
	editor.Put("/products/:id", productService.UpdateProduct)
	editor.Delete("/products/:id", productService.DeleteProduct)
}
