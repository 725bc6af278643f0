package routes

import (
	"football-backend/controllers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func GameRoutes(app *fiber.App, gc *controllers.GameController, checkRankLimit fiber.Handler) {
	api := app.Group("/api")

	api.Get("/game", gc.GetGame)
	api.Post("/check-rank", checkRankLimit, gc.CheckRank)
	api.Get("/players", gc.GetPlayers)
	api.Get("/next-game", gc.GetNextGame)
}

func AdminRoutes(app *fiber.App, ac *controllers.AdminController, requireAdmin fiber.Handler) {
	app.Post("/api/admin/token", ac.Login)

	admin := app.Group("/api/admin", requireAdmin)

	admin.Get("/leagues", ac.GetLeagues)
	admin.Get("/countries", ac.GetCountries)

	admin.Get("/players", ac.SearchPlayers)
	admin.Get("/players/:id", ac.GetPlayer)
	admin.Post("/players/:id", ac.UpdatePlayer)

	admin.Get("/games/search", ac.SearchGames)
	admin.Post("/games", ac.CreateGame)
	admin.Get("/games/:id", ac.GetGame)
	admin.Put("/games/:id", ac.UpdateGame)
}

func OpsRoutes(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
