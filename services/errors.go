package services

import "errors"

// Sentinel errors for the session engine. Handlers map these onto HTTP
// status codes: not-found → 404, invalid transition / bad input → 422,
// active-session clash → 409.
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoPausedSession = errors.New("no paused session to resume")

	ErrInvalidMode       = errors.New("mode must be 'new' or 'resume'")
	ErrSessionFinished   = errors.New("session is already finished")
	ErrSessionNotPlaying = errors.New("session is not in PLAYING state")

	ErrActiveSessionExists = errors.New("an active session already exists for this game")
)
