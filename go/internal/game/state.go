package game

import (
	"fmt"
	"time"

	gameapi "github.com/mcdev12/lightsout/go/clients/game_api_client"
)

// Phase is the lifecycle position of the kiosk session.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseActive    Phase = "ACTIVE"
	PhaseCompleted Phase = "COMPLETED"
)

// State is an immutable snapshot of the session. The Store replaces it
// wholesale on every transition; slices and pointers are never shared with
// a later snapshot that modifies them.
type State struct {
	Active            bool
	StartedAt         *time.Time
	EndedAt           *time.Time
	ElapsedSeconds    float64
	CompletionSeconds *float64
	RemoteStatus      *gameapi.Status
	SessionID         string
	TargetPortIDs     []int
	LastError         string
}

func idleState() State {
	return State{TargetPortIDs: []int{}}
}

func (s State) Phase() Phase {
	switch {
	case s.Active:
		return PhaseActive
	case s.EndedAt != nil:
		return PhaseCompleted
	default:
		return PhaseIdle
	}
}

func (s State) IsComplete() bool {
	return s.EndedAt != nil
}

func (s State) ElapsedTimeFormatted() string {
	return fmt.Sprintf("%.2f", s.ElapsedSeconds)
}

// CompletionTimeFormatted returns "" until a completion has been recorded.
func (s State) CompletionTimeFormatted() string {
	if s.CompletionSeconds == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *s.CompletionSeconds)
}

func (s State) TargetPortsCount() int {
	return len(s.TargetPortIDs)
}

func (s State) CompletedTargetsCount() int {
	if s.RemoteStatus == nil {
		return 0
	}
	return s.RemoteStatus.CompletedTargets
}

// ClassifyPort derives the display class of a port from the last board status.
func (s State) ClassifyPort(portNumber int) PortClass {
	port, ok := s.RemoteStatus.FindPort(portNumber)
	if !ok || !port.IsTarget {
		return PortInactive
	}
	switch port.Status {
	case gameapi.PortStatusUp:
		return PortReachedTarget
	case gameapi.PortStatusDown:
		return PortPendingTarget
	default:
		return PortInactive
	}
}

// View is the JSON shape pushed to the kiosk browser.
type View struct {
	Phase                   Phase             `json:"phase"`
	IsActive                bool              `json:"isActive"`
	IsComplete              bool              `json:"isComplete"`
	SessionID               string            `json:"sessionId,omitempty"`
	StartedAt               *time.Time        `json:"startedAt,omitempty"`
	EndedAt                 *time.Time        `json:"endedAt,omitempty"`
	ElapsedSeconds          float64           `json:"elapsedSeconds"`
	ElapsedTimeFormatted    string            `json:"elapsedTimeFormatted"`
	CompletionSeconds       *float64          `json:"completionSeconds,omitempty"`
	CompletionTimeFormatted string            `json:"completionTimeFormatted,omitempty"`
	TargetPortIDs           []int             `json:"targetPortIds"`
	TargetPortsCount        int               `json:"targetPortsCount"`
	CompletedTargetsCount   int               `json:"completedTargetsCount"`
	Ports                   map[int]PortClass `json:"ports"`
	Error                   string            `json:"error,omitempty"`
}

func (s State) View() View {
	ports := make(map[int]PortClass, BoardPorts)
	for p := 1; p <= BoardPorts; p++ {
		ports[p] = s.ClassifyPort(p)
	}

	return View{
		Phase:                   s.Phase(),
		IsActive:                s.Active,
		IsComplete:              s.IsComplete(),
		SessionID:               s.SessionID,
		StartedAt:               s.StartedAt,
		EndedAt:                 s.EndedAt,
		ElapsedSeconds:          s.ElapsedSeconds,
		ElapsedTimeFormatted:    s.ElapsedTimeFormatted(),
		CompletionSeconds:       s.CompletionSeconds,
		CompletionTimeFormatted: s.CompletionTimeFormatted(),
		TargetPortIDs:           s.TargetPortIDs,
		TargetPortsCount:        s.TargetPortsCount(),
		CompletedTargetsCount:   s.CompletedTargetsCount(),
		Ports:                   ports,
		Error:                   s.LastError,
	}
}
