package services

import (
	"fmt"
	"testing"

	"board-game-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway in-memory SQLite database. Each test gets its
// own named memory DB so GORM's connection pool sees one schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newEngine(t *testing.T) (*SessionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	games := NewGameService(db)
	scores := NewScoreService(db)
	achievements := NewAchievementService(db)
	return NewSessionService(db, games, scores, achievements), db
}

func seedGame(t *testing.T, db *gorm.DB, gameType string) *models.Game {
	t.Helper()
	game := &models.Game{
		ID:       uuid.NewString(),
		Name:     "Test " + gameType,
		Slug:     gameType + "-" + uuid.NewString()[:8],
		GameType: gameType,
		Status:   models.GameStatusActive,
	}
	if err := db.Create(game).Error; err != nil {
		t.Fatalf("seed game: %v", err)
	}
	return game
}

func seedAchievement(t *testing.T, db *gorm.DB, gameID, condType string, value int64) *models.Achievement {
	t.Helper()
	rule := &models.Achievement{
		ID:             uuid.NewString(),
		GameID:         gameID,
		Code:           condType + "-" + uuid.NewString()[:8],
		Name:           fmt.Sprintf("%s %d", condType, value),
		ConditionType:  condType,
		ConditionValue: value,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	return rule
}
