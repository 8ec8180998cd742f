// handlers/game_routes.go
package handlers

import (
	"board-game-system/middleware"
	"board-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService) {
	// 🔓 Catalog reads — no user context, but still behind Gateway auth
	app.Get("/games", gameService.GetAllGames)
	app.Get("/games/minimal", gameService.GetMinimalGames)
	app.Get("/games/:id", gameService.GetGameByID)

	// 🔐 Admin catalog management
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())
	admin.Post("/games", gameService.CreateGame)
	admin.Delete("/games/:id", gameService.DisableGame)
}
