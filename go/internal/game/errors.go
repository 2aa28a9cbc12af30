package game

import "errors"

var (
	// ErrStartFailed is returned when the backend rejects a start or cannot be reached
	ErrStartFailed = errors.New("start failed")

	// ErrStatusFetchFailed is returned when a status refresh fails
	ErrStatusFetchFailed = errors.New("status fetch failed")

	// ErrResetFailed wraps remote reset failures. It is only ever logged.
	ErrResetFailed = errors.New("reset failed")

	// ErrSessionNotIdle is returned by Start when a session is active, completed or starting
	ErrSessionNotIdle = errors.New("session is not idle")
)

// Messages surfaced to the kiosk screen through State.LastError.
const (
	startFailedMessage  = "Failed to start game. Please check server connection."
	statusFailedMessage = "Failed to fetch game status"
)
