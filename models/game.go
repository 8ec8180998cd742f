// models/game.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GameTypeTicTacToe = "tictactoe"
	GameTypeCaro      = "caro"
	GameTypeSnake     = "snake"
	GameTypeMatch3    = "match3"
	GameTypeMemory    = "memory"
	GameTypeFreeDraw  = "freedraw"
)

const (
	GameStatusActive   = "active"
	GameStatusDisabled = "disabled"
)

// Game is the catalog entry the session engine validates against.
// Gameplay itself happens entirely client-side.
type Game struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
	GameType    string `json:"game_type"`
	IconURL     string `json:"icon_url"`

	Status string `json:"status" gorm:"default:'active'"` // active | disabled

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Achievements []Achievement `json:"achievements,omitempty" gorm:"foreignKey:GameID"`
}
