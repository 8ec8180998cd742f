package services

import (
	"errors"
	"testing"

	"board-game-system/models"

	"gorm.io/datatypes"
)

func TestStartNewCreatesPlayingSession(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeSnake)

	res, err := svc.StartSession("alice", game.ID, ModeNew)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if res.Session.Status != models.SessionPlaying {
		t.Errorf("status = %s, want PLAYING", res.Session.Status)
	}
	if res.Session.FinalScore != nil {
		t.Errorf("final score = %v, want nil", *res.Session.FinalScore)
	}
	if res.SaveState != nil {
		t.Errorf("save_state = %s, want nil for a fresh session", res.SaveState)
	}
}

func TestStartRejectsInvalidMode(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeMemory)

	if _, err := svc.StartSession("alice", game.ID, "continue"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestStartRejectsUnknownGame(t *testing.T) {
	svc, _ := newEngine(t)

	if _, err := svc.StartSession("alice", "no-such-game", ModeNew); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("err = %v, want ErrGameNotFound", err)
	}
}

func TestResumeWithoutPausedSessionFails(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeCaro)

	if _, err := svc.StartSession("alice", game.ID, ModeResume); !errors.Is(err, ErrNoPausedSession) {
		t.Errorf("err = %v, want ErrNoPausedSession", err)
	}

	// A PLAYING session is not resumable either.
	if _, err := svc.StartSession("alice", game.ID, ModeNew); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.StartSession("alice", game.ID, ModeResume); !errors.Is(err, ErrNoPausedSession) {
		t.Errorf("err = %v, want ErrNoPausedSession for PLAYING session", err)
	}
}

func TestSaveResumeRoundTrip(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeMatch3)

	started, err := svc.StartSession("alice", game.ID, ModeNew)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	payload := datatypes.JSON(`{"score":150,"board":[[1,2],[3,4]],"moves":12}`)
	saved, err := svc.SaveSession(started.Session.ID, payload)
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if saved.Session.Status != models.SessionPaused {
		t.Errorf("status after save = %s, want PAUSED", saved.Session.Status)
	}
	if saved.Snapshot == nil || saved.Snapshot.SessionID != started.Session.ID {
		t.Fatalf("snapshot not appended for session")
	}

	exists, err := svc.HasSavedSession("alice", game.ID)
	if err != nil || !exists {
		t.Errorf("HasSavedSession = (%v, %v), want (true, nil)", exists, err)
	}

	resumed, err := svc.StartSession("alice", game.ID, ModeResume)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Session.ID != started.Session.ID {
		t.Errorf("resumed a different session: %s != %s", resumed.Session.ID, started.Session.ID)
	}
	if resumed.Session.Status != models.SessionPlaying {
		t.Errorf("status after resume = %s, want PLAYING", resumed.Session.Status)
	}
	if string(resumed.SaveState) != string(payload) {
		t.Errorf("save_state = %s, want %s", resumed.SaveState, payload)
	}
}

func TestResumeReturnsLatestSnapshot(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeSnake)

	started, _ := svc.StartSession("alice", game.ID, ModeNew)
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":10}`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := svc.StartSession("alice", game.ID, ModeResume); err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":55}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	resumed, err := svc.StartSession("alice", game.ID, ModeResume)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if string(resumed.SaveState) != `{"score":55}` {
		t.Errorf("save_state = %s, want the most recent snapshot", resumed.SaveState)
	}

	// Both snapshots remain on record (append-only history).
	var count int64
	svc.DB.Model(&models.SaveSnapshot{}).Where("session_id = ?", started.Session.ID).Count(&count)
	if count != 2 {
		t.Errorf("snapshot count = %d, want 2", count)
	}
}

func TestSaveRejectsNonPlayingSessions(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeTicTacToe)

	started, _ := svc.StartSession("alice", game.ID, ModeNew)
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Double-pause is ambiguous and rejected.
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":2}`)); !errors.Is(err, ErrSessionNotPlaying) {
		t.Errorf("err = %v, want ErrSessionNotPlaying", err)
	}

	if _, err := svc.StartSession("alice", game.ID, ModeResume); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := svc.FinishSession(started.Session.ID, 5, false); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":3}`)); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("err = %v, want ErrSessionFinished", err)
	}

	if _, err := svc.SaveSession("no-such-session", datatypes.JSON(`{}`)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStartNewAutoClosesPausedSession(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeCaro)

	old, _ := svc.StartSession("alice", game.ID, ModeNew)
	if _, err := svc.SaveSession(old.Session.ID, datatypes.JSON(`{"score":42,"grid":"..."}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh, err := svc.StartSession("alice", game.ID, ModeNew)
	if err != nil {
		t.Fatalf("StartSession(new) over paused: %v", err)
	}
	if fresh.Session.ID == old.Session.ID {
		t.Fatal("expected a brand-new session")
	}

	var reclaimed models.GameSession
	if err := svc.DB.First(&reclaimed, "id = ?", old.Session.ID).Error; err != nil {
		t.Fatalf("reload old session: %v", err)
	}
	if reclaimed.Status != models.SessionFinished {
		t.Errorf("old session status = %s, want FINISHED", reclaimed.Status)
	}
	if reclaimed.FinalScore == nil || *reclaimed.FinalScore != 42 {
		t.Errorf("old session final score = %v, want 42 from its snapshot", reclaimed.FinalScore)
	}
	if reclaimed.EndedAt == nil {
		t.Error("old session ended_at not set")
	}

	assertOneActive(t, svc, "alice", game.ID)
}

func TestAutoCloseDefaultsScoreToZero(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"no score field", `{"board":[1,2,3]}`},
		{"unparseable score", `{"score":"not-a-number"}`},
		{"empty payload", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newEngine(t)
			game := seedGame(t, svc.DB, models.GameTypeFreeDraw)

			old, _ := svc.StartSession("alice", game.ID, ModeNew)
			if _, err := svc.SaveSession(old.Session.ID, datatypes.JSON(tc.payload)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if _, err := svc.StartSession("alice", game.ID, ModeNew); err != nil {
				t.Fatalf("start new: %v", err)
			}

			var reclaimed models.GameSession
			svc.DB.First(&reclaimed, "id = ?", old.Session.ID)
			if reclaimed.FinalScore == nil || *reclaimed.FinalScore != 0 {
				t.Errorf("final score = %v, want 0", reclaimed.FinalScore)
			}
		})
	}
}

func TestStartNewReclaimsOrphanedPlayingSession(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeSnake)

	// Client crashed mid-game: session stuck in PLAYING with no snapshot.
	orphan, _ := svc.StartSession("alice", game.ID, ModeNew)

	fresh, err := svc.StartSession("alice", game.ID, ModeNew)
	if err != nil {
		t.Fatalf("start new over orphaned PLAYING: %v", err)
	}
	if fresh.Session.ID == orphan.Session.ID {
		t.Fatal("expected a brand-new session")
	}

	var reclaimed models.GameSession
	svc.DB.First(&reclaimed, "id = ?", orphan.Session.ID)
	if reclaimed.Status != models.SessionFinished || reclaimed.FinalScore == nil || *reclaimed.FinalScore != 0 {
		t.Errorf("orphan not reclaimed with score 0: status=%s score=%v", reclaimed.Status, reclaimed.FinalScore)
	}

	assertOneActive(t, svc, "alice", game.ID)
}

func TestFinishIsNotIdempotent(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeMatch3)

	started, _ := svc.StartSession("alice", game.ID, ModeNew)
	first, err := svc.FinishSession(started.Session.ID, 90, true)
	if err != nil {
		t.Fatalf("first finish: %v", err)
	}

	if _, err := svc.FinishSession(started.Session.ID, 999, true); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("second finish err = %v, want ErrSessionFinished", err)
	}

	// The rejected call must not have altered anything.
	var sess models.GameSession
	svc.DB.First(&sess, "id = ?", started.Session.ID)
	if sess.FinalScore == nil || *sess.FinalScore != 90 {
		t.Errorf("final score = %v, want 90 untouched", sess.FinalScore)
	}
	if sess.EndedAt == nil || !sess.EndedAt.Equal(*first.Session.EndedAt) {
		t.Errorf("ended_at changed by rejected finish")
	}
}

func TestFinishUnknownSession(t *testing.T) {
	svc, _ := newEngine(t)

	if _, err := svc.FinishSession("no-such-session", 10, false); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestFinishFromPausedState(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeMemory)

	started, _ := svc.StartSession("alice", game.ID, ModeNew)
	if _, err := svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":30}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	// finish is legal from PAUSED as well as PLAYING
	res, err := svc.FinishSession(started.Session.ID, 30, false)
	if err != nil {
		t.Fatalf("finish from PAUSED: %v", err)
	}
	if res.BestScore.BestScore != 30 {
		t.Errorf("best score = %d, want 30", res.BestScore.BestScore)
	}
}

func TestHasSavedSessionOnlyCountsPaused(t *testing.T) {
	svc, _ := newEngine(t)
	game := seedGame(t, svc.DB, models.GameTypeTicTacToe)

	if exists, _ := svc.HasSavedSession("alice", game.ID); exists {
		t.Error("exists before any session")
	}

	started, _ := svc.StartSession("alice", game.ID, ModeNew)
	if exists, _ := svc.HasSavedSession("alice", game.ID); exists {
		t.Error("PLAYING session reported as saved")
	}

	svc.SaveSession(started.Session.ID, datatypes.JSON(`{"score":1}`))
	if exists, _ := svc.HasSavedSession("alice", game.ID); !exists {
		t.Error("PAUSED session not reported as saved")
	}

	svc.FinishSession(started.Session.ID, 1, false)
	if exists, _ := svc.HasSavedSession("alice", game.ID); exists {
		t.Error("FINISHED session reported as saved")
	}
}

func TestSessionsAreScopedPerUserAndGame(t *testing.T) {
	svc, _ := newEngine(t)
	snake := seedGame(t, svc.DB, models.GameTypeSnake)
	caro := seedGame(t, svc.DB, models.GameTypeCaro)

	// Same user, different games: both slots usable at once.
	if _, err := svc.StartSession("alice", snake.ID, ModeNew); err != nil {
		t.Fatalf("alice/snake: %v", err)
	}
	if _, err := svc.StartSession("alice", caro.ID, ModeNew); err != nil {
		t.Fatalf("alice/caro: %v", err)
	}

	// Different users, same game.
	if _, err := svc.StartSession("bob", snake.ID, ModeNew); err != nil {
		t.Fatalf("bob/snake: %v", err)
	}

	assertOneActive(t, svc, "alice", snake.ID)
	assertOneActive(t, svc, "alice", caro.ID)
	assertOneActive(t, svc, "bob", snake.ID)
}

func assertOneActive(t *testing.T, svc *SessionService, userID, gameID string) {
	t.Helper()
	var active int64
	svc.DB.Model(&models.GameSession{}).
		Where("user_id = ? AND game_id = ? AND status <> ?", userID, gameID, models.SessionFinished).
		Count(&active)
	if active != 1 {
		t.Errorf("active sessions for (%s,%s) = %d, want 1", userID, gameID, active)
	}
}
