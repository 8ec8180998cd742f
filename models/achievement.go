// models/achievement.go
package models

import "time"

const (
	ConditionScore     = "score"      // best score reaches the threshold
	ConditionPlayCount = "play_count" // finished sessions for the game
	ConditionTime      = "time"       // total seconds played across finished sessions
	ConditionWinCount  = "win_count"  // finished sessions reported as won
)

// ConditionTypes lists every evaluator the finish path runs.
var ConditionTypes = []string{ConditionScore, ConditionPlayCount, ConditionTime, ConditionWinCount}

// Achievement: static per-game unlock rule, admin-managed.
type Achievement struct {
	ID             string `json:"id" gorm:"primaryKey"`
	GameID         string `json:"game_id" gorm:"index;not null"`
	Code           string `json:"code" gorm:"uniqueIndex;not null"` // e.g., "snake-century", "caro-first-win"
	Name           string `json:"name" gorm:"not null"`
	Description    string `json:"description"`
	IconURL        string `json:"icon_url"`
	ConditionType  string `json:"condition_type" gorm:"type:varchar(16);not null"`
	ConditionValue int64  `json:"condition_value" gorm:"not null;check:condition_value > 0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAchievement records that a user unlocked an achievement. The unique
// composite index guarantees at-most-once even under racing finishes.
type UserAchievement struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"uniqueIndex:idx_user_achievement;not null"`
	AchievementID string    `json:"achievement_id" gorm:"uniqueIndex:idx_user_achievement;not null"`
	AchievedAt    time.Time `json:"achieved_at" gorm:"autoCreateTime"`

	Achievement Achievement `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`
}
