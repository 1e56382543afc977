package handlers

import (
	"nexogeo-platform/middleware"
	"nexogeo-platform/services"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupCaixaRoutes(app *fiber.App, caixaService *services.CaixaService) {
	// 🔓 Public routes — the live widget and the guess form. No user context,
	// but still behind Gateway auth.
	app.Get("/caixa/live", caixaService.Live)
	app.Post("/caixa/submit", caixaService.Submit)

	// 🔐 Dashboard routes — require user context. Scoped to /caixa so the
	// middleware never leaks onto routes registered by the other setups.
	secured := app.Group("/caixa", middleware.UserContextMiddleware())
	secured.Get("/games", caixaService.ListGames)
	secured.Get("/games/:id/submissions", caixaService.ListSubmissions)

	// 🔒 Round lifecycle is admin-only
	admin := secured.Group("/", middleware.RequireRole(utils.RoleAdmin))
	admin.Post("/start", caixaService.Start)
	admin.Post("/reveal-clue", caixaService.RevealClue)
	admin.Post("/end-submissions", caixaService.EndSubmissions)
	admin.Post("/draw-winner", caixaService.DrawWinner)
	admin.Post("/reset", caixaService.Reset)
}
