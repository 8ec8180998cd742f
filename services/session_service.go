package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"board-game-system/models"
	"board-game-system/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ModeNew    = "new"
	ModeResume = "resume"
)

// SessionService is the session lifecycle orchestrator: it starts, resumes,
// saves and finishes sessions, and drives best-score updates and achievement
// evaluation as side effects of a finish.
type SessionService struct {
	DB           *gorm.DB
	Games        *GameService
	Scores       *ScoreService
	Achievements *AchievementService
}

func NewSessionService(db *gorm.DB, games *GameService, scores *ScoreService, achievements *AchievementService) *SessionService {
	return &SessionService{DB: db, Games: games, Scores: scores, Achievements: achievements}
}

type StartResult struct {
	Session   *models.GameSession `json:"session"`
	SaveState datatypes.JSON      `json:"save_state"`
}

type SaveResult struct {
	Session  *models.GameSession  `json:"session"`
	Snapshot *models.SaveSnapshot `json:"snapshot"`
}

type FinishResult struct {
	Session         *models.GameSession  `json:"session"`
	BestScore       *models.BestScore    `json:"best_score"`
	NewAchievements []models.Achievement `json:"new_achievements"`
}

// StartSession opens a session for (user, game). mode "new" creates a fresh
// PLAYING session, first reclaiming any stale active one; mode "resume"
// flips the user's PAUSED session back to PLAYING and returns its latest
// snapshot payload.
func (s *SessionService) StartSession(userID, gameID, mode string) (*StartResult, error) {
	if mode != ModeNew && mode != ModeResume {
		return nil, ErrInvalidMode
	}

	if _, err := s.Games.FindGameByID(gameID); err != nil {
		return nil, err
	}

	var result *StartResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if mode == ModeResume {
			res, err := s.resume(tx, userID, gameID)
			if err != nil {
				return err
			}
			result = res
			return nil
		}

		// mode == new: a leftover PAUSED session is closed with its last
		// saved score; a leftover PLAYING one was orphaned by a dead client
		// and is reclaimed the same way, otherwise the unique index on
		// active sessions would lock the user out of the game forever.
		var stale models.GameSession
		err := tx.Where("user_id = ? AND game_id = ? AND status <> ?", userID, gameID, models.SessionFinished).
			First(&stale).Error
		if err == nil {
			if _, err := s.closeWithSnapshotScore(tx, &stale); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup active session: %w", err)
		}

		session := &models.GameSession{
			ID:     uuid.NewString(),
			UserID: userID,
			GameID: gameID,
			Status: models.SessionPlaying,
		}
		if err := tx.Create(session).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrActiveSessionExists // concurrent start(new) won the slot
			}
			return fmt.Errorf("create session: %w", err)
		}

		utils.SessionsStarted.Inc()
		result = &StartResult{Session: session, SaveState: nil}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SessionService) resume(tx *gorm.DB, userID, gameID string) (*StartResult, error) {
	var session models.GameSession
	err := tx.Where("user_id = ? AND game_id = ? AND status = ?", userID, gameID, models.SessionPaused).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPausedSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup paused session: %w", err)
	}

	session.Status = models.SessionPlaying
	if err := tx.Save(&session).Error; err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	snap, err := s.latestSnapshot(tx, session.ID)
	if err != nil {
		return nil, err
	}

	utils.SessionsResumed.Inc()
	res := &StartResult{Session: &session}
	if snap != nil {
		res.SaveState = snap.SaveState
	}
	return res, nil
}

// SaveSession pauses a PLAYING session and appends a snapshot with the
// caller's opaque payload. Saving a PAUSED or FINISHED session is rejected.
func (s *SessionService) SaveSession(sessionID string, state datatypes.JSON) (*SaveResult, error) {
	var result *SaveResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		err := tx.Where("id = ?", sessionID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup session: %w", err)
		}

		switch session.Status {
		case models.SessionFinished:
			return ErrSessionFinished
		case models.SessionPaused:
			return ErrSessionNotPlaying
		}

		session.Status = models.SessionPaused
		if err := tx.Save(&session).Error; err != nil {
			return fmt.Errorf("pause session: %w", err)
		}

		snapshot := &models.SaveSnapshot{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			SaveState: state,
			SavedAt:   time.Now(),
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return fmt.Errorf("append snapshot: %w", err)
		}

		utils.SessionsSaved.Inc()
		result = &SaveResult{Session: &session, Snapshot: snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FinishSession closes a session with its final score, raises the best-score
// ledger, evaluates achievements against the post-update best, and returns
// the newly granted ones. The whole sequence commits as one transaction.
//
// New grants are computed by diffing the user's grant set before and after
// the evaluation rather than trusting the evaluator's return value, so a
// grant performed by a racing finish is never attributed to this call too.
func (s *SessionService) FinishSession(sessionID string, score int64, won bool) (*FinishResult, error) {
	var result *FinishResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		err := tx.Where("id = ?", sessionID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup session: %w", err)
		}
		if session.Status == models.SessionFinished {
			return ErrSessionFinished
		}

		before, err := s.Achievements.GrantsForGame(tx, session.UserID, session.GameID)
		if err != nil {
			return err
		}

		// Guarded update: of two racing finishes exactly one flips the row,
		// the other sees zero rows affected and gets the conflict error.
		now := time.Now()
		res := tx.Model(&models.GameSession{}).
			Where("id = ? AND status <> ?", session.ID, models.SessionFinished).
			Updates(map[string]interface{}{
				"status":      models.SessionFinished,
				"final_score": score,
				"won":         won,
				"ended_at":    now,
			})
		if res.Error != nil {
			return fmt.Errorf("finish session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSessionFinished
		}
		session.Status = models.SessionFinished
		session.FinalScore = &score
		session.Won = won
		session.EndedAt = &now

		best, err := s.Scores.UpdateBestScore(tx, session.UserID, session.GameID, score)
		if err != nil {
			return err
		}

		// Thresholds are checked against the post-update best, not the raw
		// submitted score: a run below the historical best still evaluates
		// against that higher best.
		if _, err := s.Achievements.GrantEligible(tx, session.UserID, session.GameID, best.BestScore); err != nil {
			return err
		}

		after, err := s.Achievements.GrantsForGame(tx, session.UserID, session.GameID)
		if err != nil {
			return err
		}

		newAchievements, err := s.diffGrants(tx, before, after)
		if err != nil {
			return err
		}

		utils.SessionsFinished.Inc()
		result = &FinishResult{
			Session:         &session,
			BestScore:       best,
			NewAchievements: newAchievements,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SessionService) diffGrants(tx *gorm.DB, before, after map[string]bool) ([]models.Achievement, error) {
	var newIDs []string
	for id := range after {
		if !before[id] {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return []models.Achievement{}, nil
	}

	var achievements []models.Achievement
	if err := tx.Where("id IN ?", newIDs).Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("load new achievements: %w", err)
	}
	return achievements, nil
}

// HasSavedSession reports whether the user has a PAUSED session to resume.
func (s *SessionService) HasSavedSession(userID, gameID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.GameSession{}).
		Where("user_id = ? AND game_id = ? AND status = ?", userID, gameID, models.SessionPaused).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check saved session: %w", err)
	}
	return count > 0, nil
}

// AutoCloseStale finishes every non-FINISHED session idle for longer than
// olderThan, each with the score of its latest snapshot. Used by the reaper
// worker. Returns the number of sessions closed.
func (s *SessionService) AutoCloseStale(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []models.GameSession
	if err := s.DB.Where("status <> ? AND updated_at < ?", models.SessionFinished, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("find stale sessions: %w", err)
	}

	closed := 0
	for i := range stale {
		var ok bool
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var cerr error
			ok, cerr = s.closeWithSnapshotScore(tx, &stale[i])
			return cerr
		})
		if err != nil {
			log.Printf("[Reaper] Failed to close session %s: %v", stale[i].ID, err)
			continue
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

// closeWithSnapshotScore finishes a stale session with whatever score its
// latest snapshot carries (0 when there is no snapshot or no parsable
// score). The write is guarded on the session still being active: a client
// finish landing between the stale-list read and this write wins, and its
// final score stays untouched. Reports whether this call closed the
// session. Best-score and achievement side effects are reserved for
// explicit finishes.
func (s *SessionService) closeWithSnapshotScore(tx *gorm.DB, session *models.GameSession) (bool, error) {
	if !session.IsActive() {
		return false, nil
	}

	snap, err := s.latestSnapshot(tx, session.ID)
	if err != nil {
		return false, err
	}
	score := snapshotScore(snap)

	now := time.Now()
	res := tx.Model(&models.GameSession{}).
		Where("id = ? AND status <> ?", session.ID, models.SessionFinished).
		Updates(map[string]interface{}{
			"status":      models.SessionFinished,
			"final_score": score,
			"ended_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("auto-close session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil // finished by the client in the meantime
	}
	session.Status = models.SessionFinished
	session.FinalScore = &score
	session.EndedAt = &now

	utils.SessionsAutoClosed.Inc()
	log.Printf("♻️ Auto-closed stale session %s (user=%s game=%s score=%d)",
		session.ID, session.UserID, session.GameID, score)
	return true, nil
}

func (s *SessionService) latestSnapshot(tx *gorm.DB, sessionID string) (*models.SaveSnapshot, error) {
	var snap models.SaveSnapshot
	err := tx.Where("session_id = ?", sessionID).
		Order("saved_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return &snap, nil
}

// snapshotScore extracts the normalized `score` envelope field every game's
// snapshot writer is required to populate. Anything missing or unparseable
// counts as 0 — never fail an auto-close over a malformed blob.
func snapshotScore(snap *models.SaveSnapshot) int64 {
	if snap == nil || len(snap.SaveState) == 0 {
		return 0
	}
	var envelope struct {
		Score *json.Number `json:"score"`
	}
	if err := json.Unmarshal(snap.SaveState, &envelope); err != nil || envelope.Score == nil {
		return 0
	}
	if v, err := envelope.Score.Int64(); err == nil {
		return v
	}
	if f, err := envelope.Score.Float64(); err == nil {
		return int64(f)
	}
	return 0
}
