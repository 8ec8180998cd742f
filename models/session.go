// models/session.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionPlaying  = "PLAYING"
	SessionPaused   = "PAUSED"
	SessionFinished = "FINISHED"
)

// GameSession is one attempt by one user at one game. At most one
// non-FINISHED session may exist per (user, game); the partial unique
// index created in Migrate enforces it at the store level.
type GameSession struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index:idx_session_user_game;not null"`
	GameID string `json:"game_id" gorm:"index:idx_session_user_game;not null"`

	Status     string `json:"status" gorm:"type:varchar(16);default:'PLAYING';not null"` // PLAYING | PAUSED | FINISHED
	FinalScore *int64 `json:"final_score"`                                               // set only at FINISHED
	Won        bool   `json:"won" gorm:"default:false"`                                  // client-reported, recorded at finish

	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Snapshots []SaveSnapshot `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// IsActive reports whether the session still occupies the (user, game) slot.
func (s *GameSession) IsActive() bool {
	return s.Status != SessionFinished
}

// SaveSnapshot is an append-only serialized game-state blob. Only the
// most recent snapshot of a session is ever read back.
type SaveSnapshot struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	SessionID string         `json:"session_id" gorm:"index;not null"`
	SaveState datatypes.JSON `json:"save_state" gorm:"type:jsonb"`
	SavedAt   time.Time      `json:"saved_at" gorm:"autoCreateTime;index"`
}
