// handlers/session_routes.go
package handlers

import (
	"errors"

	"board-game-system/middleware"
	"board-game-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// statusForError maps the engine's sentinel errors onto HTTP statuses:
// missing resources → 404, invalid transitions/input → 422, a lost race for
// the active-session slot → 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrNoPausedSession):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrSessionFinished),
		errors.Is(err, services.ErrSessionNotPlaying):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrActiveSessionExists):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func serviceError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error", "cause": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService) {
	secured := app.Group("/sessions", middleware.UserContextMiddleware())

	secured.Post("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			GameID string `json:"game_id"`
			Mode   string `json:"mode"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.GameID == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "game_id is required"})
		}

		result, err := sessionService.StartSession(userID, req.GameID, req.Mode)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	secured.Put("/:id/save", func(c *fiber.Ctx) error {
		type Req struct {
			SaveState datatypes.JSON `json:"save_state"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		result, err := sessionService.SaveSession(c.Params("id"), req.SaveState)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	secured.Put("/:id/finish", func(c *fiber.Ctx) error {
		type Req struct {
			Score int64 `json:"score"`
			Won   bool  `json:"won"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		result, err := sessionService.FinishSession(c.Params("id"), req.Score, req.Won)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/exists", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		gameID := c.Query("game_id")
		if gameID == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "game_id is required"})
		}

		exists, err := sessionService.HasSavedSession(userID, gameID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"isSavedExists": exists})
	})
}
