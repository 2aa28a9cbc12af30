package events

import (
	"time"
)

// Event payload types shared between the game store and its subscribers

const (
	TypeSessionStarted     = "SessionStarted"
	TypeSessionStartFailed = "SessionStartFailed"
	TypeSessionCompleted   = "SessionCompleted"
	TypeSessionReset       = "SessionReset"
)

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	SessionID   string    `json:"session_id"`
	TargetPorts []int     `json:"target_ports"`
	StartedAt   time.Time `json:"started_at"`
}

// SessionStartFailedPayload is the payload for a SessionStartFailed event
type SessionStartFailedPayload struct {
	TargetPorts []int     `json:"target_ports"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}

// SessionCompletedPayload is the payload for a SessionCompleted event
type SessionCompletedPayload struct {
	SessionID         string    `json:"session_id"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
	CompletionSeconds float64   `json:"completion_seconds"`
	CompletedTargets  int       `json:"completed_targets"`
}

// SessionResetPayload is the payload for a SessionReset event
type SessionResetPayload struct {
	SessionID     string    `json:"session_id,omitempty"`
	PreviousPhase string    `json:"previous_phase"`
	RemoteFailed  bool      `json:"remote_failed"`
	ResetAt       time.Time `json:"reset_at"`
}
