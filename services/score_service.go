package services

import (
	"errors"
	"fmt"
	"time"

	"board-game-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScoreService struct {
	DB *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{DB: db}
}

// UpdateBestScore raises the (user, game) high-water mark. Create on first
// finish, update in place only when the new score strictly exceeds the
// stored one, otherwise return the existing row untouched. Runs on the
// caller's handle so the finish path can keep it inside its transaction.
func (s *ScoreService) UpdateBestScore(tx *gorm.DB, userID, gameID string, score int64) (*models.BestScore, error) {
	var best models.BestScore
	err := tx.Where("user_id = ? AND game_id = ?", userID, gameID).First(&best).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		best = models.BestScore{
			ID:         uuid.NewString(),
			UserID:     userID,
			GameID:     gameID,
			BestScore:  score,
			AchievedAt: time.Now(),
		}
		if err := tx.Create(&best).Error; err != nil {
			return nil, fmt.Errorf("create best score: %w", err)
		}
		return &best, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup best score: %w", err)
	}

	if score <= best.BestScore {
		return &best, nil
	}

	best.BestScore = score
	best.AchievedAt = time.Now()
	if err := tx.Save(&best).Error; err != nil {
		return nil, fmt.Errorf("update best score: %w", err)
	}
	return &best, nil
}

// GetUserBestScores returns every high-water mark the user holds.
func (s *ScoreService) GetUserBestScores(userID string) ([]models.BestScore, error) {
	var scores []models.BestScore
	err := s.DB.Where("user_id = ?", userID).
		Order("achieved_at DESC").
		Find(&scores).Error
	return scores, err
}

// LeaderboardEntry is one row of a per-game leaderboard.
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	UserID     string    `json:"user_id"`
	BestScore  int64     `json:"best_score"`
	AchievedAt time.Time `json:"achieved_at"`
}

// GetLeaderboard returns the top best scores for a game, highest first.
// Ties rank by who got there first.
func (s *ScoreService) GetLeaderboard(gameID string, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var rows []models.BestScore
	if err := s.DB.Where("game_id = ?", gameID).
		Order("best_score DESC").
		Order("achieved_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     r.UserID,
			BestScore:  r.BestScore,
			AchievedAt: r.AchievedAt,
		})
	}
	return entries, nil
}
