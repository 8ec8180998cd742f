// utils/metrics.go
package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters, exposed on /metrics.
var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_started_total",
		Help: "Sessions created via start(new).",
	})
	SessionsResumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_resumed_total",
		Help: "Paused sessions resumed.",
	})
	SessionsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_saved_total",
		Help: "Save snapshots appended.",
	})
	SessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_finished_total",
		Help: "Sessions finished explicitly by the client.",
	})
	SessionsAutoClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_auto_closed_total",
		Help: "Stale sessions reclaimed by start(new) or the reaper.",
	})
	AchievementsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_achievements_granted_total",
		Help: "Achievement grant rows inserted.",
	})
)
