// models/migrate.go
package models

import "gorm.io/gorm"

// Migrate runs AutoMigrate for every table plus the partial unique index
// GORM tags cannot express. The partial index is what makes "at most one
// active session per (user, game)" a store guarantee instead of an
// application-level convention.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Game{},
		&GameSession{},
		&SaveSnapshot{},
		&BestScore{},
		&Achievement{},
		&UserAchievement{},
	); err != nil {
		return err
	}

	// Same syntax on Postgres and SQLite.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_session
		 ON game_sessions (user_id, game_id) WHERE status <> 'FINISHED'`,
	).Error
}
