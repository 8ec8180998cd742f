package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"board-game-system/models"
	"board-game-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// playerStats is everything the condition evaluators look at. Best score
// comes from the ledger (already updated by the finish path); the counters
// are derived from finished sessions.
type playerStats struct {
	BestScore   int64
	PlayCount   int64
	TotalPlayed time.Duration
	WinCount    int64
}

func collectStats(tx *gorm.DB, userID, gameID string, bestScore int64) (*playerStats, error) {
	stats := &playerStats{BestScore: bestScore}

	var sessions []models.GameSession
	if err := tx.Where("user_id = ? AND game_id = ? AND status = ?", userID, gameID, models.SessionFinished).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("collect session stats: %w", err)
	}

	for _, sess := range sessions {
		stats.PlayCount++
		if sess.Won {
			stats.WinCount++
		}
		if sess.EndedAt != nil {
			stats.TotalPlayed += sess.EndedAt.Sub(sess.CreatedAt)
		}
	}
	return stats, nil
}

func (st *playerStats) meets(a *models.Achievement) bool {
	switch a.ConditionType {
	case models.ConditionScore:
		return st.BestScore >= a.ConditionValue
	case models.ConditionPlayCount:
		return st.PlayCount >= a.ConditionValue
	case models.ConditionTime:
		return int64(st.TotalPlayed.Seconds()) >= a.ConditionValue
	case models.ConditionWinCount:
		return st.WinCount >= a.ConditionValue
	}
	return false
}

// GrantEligible checks every achievement of the game against the user's
// current stats and inserts grant rows for the ones newly met. Returns only
// the achievements granted by THIS call. A grant row inserted by a racing
// finish loses to the (user_id, achievement_id) unique index and is
// swallowed, so a grant can never be recorded twice.
func (s *AchievementService) GrantEligible(tx *gorm.DB, userID, gameID string, bestScore int64) ([]models.Achievement, error) {
	var rules []models.Achievement
	if err := tx.Where("game_id = ?", gameID).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	stats, err := collectStats(tx, userID, gameID, bestScore)
	if err != nil {
		return nil, err
	}

	var granted []models.Achievement
	for _, rule := range rules {
		if !stats.meets(&rule) {
			continue
		}

		var count int64
		if err := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ?", userID, rule.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check existing grant: %w", err)
		}
		if count > 0 {
			continue
		}

		grant := models.UserAchievement{
			ID:            uuid.NewString(),
			UserID:        userID,
			AchievementID: rule.ID,
			AchievedAt:    time.Now(),
		}
		if err := tx.Create(&grant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue // a concurrent finish got there first
			}
			return nil, fmt.Errorf("insert grant: %w", err)
		}

		utils.AchievementsGranted.Inc()
		log.Printf("🏆 Achievement granted: %s → %s", rule.Code, userID)
		granted = append(granted, rule)
	}
	return granted, nil
}

// GrantsForGame returns the achievement IDs the user currently holds for
// one game. The orchestrator diffs this set before and after a finish.
func (s *AchievementService) GrantsForGame(tx *gorm.DB, userID, gameID string) (map[string]bool, error) {
	var ids []string
	err := tx.Model(&models.UserAchievement{}).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ? AND achievements.game_id = ?", userID, gameID).
		Pluck("user_achievements.achievement_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListForGame returns the full catalog for one game.
func (s *AchievementService) ListForGame(gameID string) ([]models.Achievement, error) {
	var rules []models.Achievement
	err := s.DB.Where("game_id = ?", gameID).
		Order("condition_type ASC, condition_value ASC").
		Find(&rules).Error
	return rules, err
}

// ListUserAchievements returns every grant the user holds, newest first,
// with the achievement definitions preloaded.
func (s *AchievementService) ListUserAchievements(userID string) ([]models.UserAchievement, error) {
	var grants []models.UserAchievement
	err := s.DB.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("achieved_at DESC").
		Find(&grants).Error
	return grants, err
}

// CreateAchievement registers a new unlock rule (admin only). The code is
// slugged from the game + name when the caller leaves it blank.
func (s *AchievementService) CreateAchievement(c *fiber.Ctx) error {
	type Req struct {
		GameID         string `json:"game_id" validate:"required"`
		Code           string `json:"code" validate:"max=128"`
		Name           string `json:"name" validate:"required,max=128"`
		Description    string `json:"description"`
		IconURL        string `json:"icon_url"`
		ConditionType  string `json:"condition_type" validate:"required"`
		ConditionValue int64  `json:"condition_value" validate:"required,min=1"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": err.Error()})
	}
	// condition_type must name one of the evaluators the finish path runs
	if err := validate.Var(req.ConditionType, "oneof="+strings.Join(models.ConditionTypes, " ")); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "condition_type must be one of: " + strings.Join(models.ConditionTypes, ", "),
		})
	}

	var game models.Game
	if err := s.DB.Where("id = ?", req.GameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch game", "cause": err.Error()})
	}

	if req.Code == "" {
		req.Code = slug.Make(game.Slug + " " + req.Name)
	}

	rule := &models.Achievement{
		ID:             uuid.NewString(),
		GameID:         req.GameID,
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		IconURL:        req.IconURL,
		ConditionType:  req.ConditionType,
		ConditionValue: req.ConditionValue,
	}
	if err := s.DB.Create(rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "achievement code already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create achievement", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}
