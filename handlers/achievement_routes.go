// handlers/achievement_routes.go
package handlers

import (
	"strconv"

	"board-game-system/middleware"
	"board-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAchievementRoutes(app *fiber.App, achievementService *services.AchievementService, scoreService *services.ScoreService) {
	// Catalog + leaderboard reads need no user context.
	app.Get("/games/:id/achievements", func(c *fiber.Ctx) error {
		rules, err := achievementService.ListForGame(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(rules)
	})

	app.Get("/games/:id/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		entries, err := scoreService.GetLeaderboard(c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	secured := app.Group("/user", middleware.UserContextMiddleware())

	secured.Get("/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		grants, err := achievementService.ListUserAchievements(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch user achievements",
				"cause": err.Error(),
			})
		}

		response := make([]fiber.Map, 0, len(grants))
		for _, g := range grants {
			response = append(response, fiber.Map{
				"id":              g.ID,
				"achievement_id":  g.AchievementID,
				"game_id":         g.Achievement.GameID,
				"code":            g.Achievement.Code,
				"name":            g.Achievement.Name,
				"description":     g.Achievement.Description,
				"icon_url":        g.Achievement.IconURL,
				"condition_type":  g.Achievement.ConditionType,
				"condition_value": g.Achievement.ConditionValue,
				"achieved_at":     g.AchievedAt,
			})
		}
		return c.JSON(response)
	})

	secured.Get("/scores", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		scores, err := scoreService.GetUserBestScores(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch best scores",
				"cause": err.Error(),
			})
		}
		return c.JSON(scores)
	})

	// Admin: achievement catalog management
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())
	admin.Post("/achievements", achievementService.CreateAchievement)
}
