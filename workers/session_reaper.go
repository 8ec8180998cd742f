// workers/session_reaper.go
package workers

import (
	"context"
	"log"
	"time"

	"board-game-system/services"

	"github.com/go-co-op/gocron/v2"
)

// StartSessionReaper runs the stale-session sweep on a fixed schedule.
// Sessions left PLAYING or PAUSED beyond staleAfter are auto-closed with
// their last saved score, the same reclaim a start(new) performs, so
// abandoned sessions do not pile up waiting for the user to come back.
func StartSessionReaper(ctx context.Context, sessionService *services.SessionService, interval, staleAfter time.Duration) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Reaper] Failed to create scheduler: %v", err)
		return
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			closed, err := sessionService.AutoCloseStale(staleAfter)
			if err != nil {
				log.Printf("[Reaper] Sweep failed: %v", err)
				return
			}
			if closed > 0 {
				log.Printf("♻️ [Reaper] Auto-closed %d stale session(s)", closed)
			}
		}),
	)
	if err != nil {
		log.Printf("[Reaper] Failed to schedule job: %v", err)
		return
	}

	sched.Start()

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Reaper] Scheduler shutdown error: %v", err)
		}
	}()
}
