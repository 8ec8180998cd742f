package services

import (
	"errors"
	"fmt"

	"board-game-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// MinimalGame struct for lightweight listing
type MinimalGame struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	GameType string `json:"game_type"`
	IconURL  string `json:"icon_url"`
}

// FindGameByID validates a game reference for the session engine. Disabled
// games are treated the same as missing ones: no new sessions may target them.
func (s *GameService) FindGameByID(id string) (*models.Game, error) {
	var game models.Game
	err := s.DB.Where("id = ? AND status = ?", id, models.GameStatusActive).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup game %s: %w", id, err)
	}
	return &game, nil
}

// GetAllGames lists active catalog entries.
func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Where("status = ?", models.GameStatusActive).
		Order("name ASC").
		Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch games",
			"cause": err.Error(),
		})
	}
	return c.JSON(games)
}

// GetMinimalGames lists the fields a game picker needs, nothing else.
func (s *GameService) GetMinimalGames(c *fiber.Ctx) error {
	var games []MinimalGame
	if err := s.DB.Model(&models.Game{}).
		Where("status = ?", models.GameStatusActive).
		Order("name ASC").
		Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch games",
			"cause": err.Error(),
		})
	}
	return c.JSON(games)
}

// GetGameByID returns one game with its achievement catalog preloaded.
func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	var game models.Game
	err := s.DB.Preload("Achievements").Where("id = ?", c.Params("id")).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch game",
			"cause": err.Error(),
		})
	}
	return c.JSON(game)
}

// CreateGame registers a new catalog entry (admin only). The slug is
// generated from the name when the caller leaves it blank.
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	type Req struct {
		Name        string `json:"name" validate:"required,max=128"`
		Slug        string `json:"slug" validate:"max=128"`
		Description string `json:"description"`
		GameType    string `json:"game_type" validate:"required,oneof=tictactoe caro snake match3 memory freedraw"`
		IconURL     string `json:"icon_url"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": err.Error()})
	}

	if req.Slug == "" {
		req.Slug = slug.Make(req.Name)
	}

	game := &models.Game{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		GameType:    req.GameType,
		IconURL:     req.IconURL,
		Status:      models.GameStatusActive,
	}
	if err := s.DB.Create(game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create game",
			"cause": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// DisableGame soft-retires a game from the catalog without touching
// historical sessions or scores.
func (s *GameService) DisableGame(c *fiber.Ctx) error {
	res := s.DB.Model(&models.Game{}).
		Where("id = ?", c.Params("id")).
		Update("status", models.GameStatusDisabled)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to disable game",
			"cause": res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}
	return c.JSON(fiber.Map{"message": "game disabled"})
}
