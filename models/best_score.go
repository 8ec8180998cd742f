// models/best_score.go
package models

import "time"

// BestScore is the per-user-per-game high-water mark. best_score never
// decreases once the row exists.
type BestScore struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"uniqueIndex:idx_best_user_game;not null"`
	GameID     string    `json:"game_id" gorm:"uniqueIndex:idx_best_user_game;not null"`
	BestScore  int64     `json:"best_score" gorm:"default:0"`
	AchievedAt time.Time `json:"achieved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
