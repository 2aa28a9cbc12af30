package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/mcdev12/lightsout/go/internal/kiosk"
)

// KioskEvent is the envelope pushed to every WebSocket client
type KioskEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of kiosk event
type EventType string

const (
	EventTypeSessionUpdated EventType = "SessionUpdated"
	EventTypeScreenChanged  EventType = "ScreenChanged"
)

func newKioskEvent(eventType EventType, at time.Time, data interface{}) (*KioskEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return &KioskEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      raw,
	}, nil
}

// NewSessionUpdatedEvent carries the full session view.
func NewSessionUpdatedEvent(state game.State, at time.Time) (*KioskEvent, error) {
	return newKioskEvent(EventTypeSessionUpdated, at, state.View())
}

// NewScreenChangedEvent carries the current screen and countdown.
func NewScreenChangedEvent(screen kiosk.ScreenState, at time.Time) (*KioskEvent, error) {
	return newKioskEvent(EventTypeScreenChanged, at, screen)
}

// ParseEventPayload decodes event data into the payload type for its event type.
func ParseEventPayload(event *KioskEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeSessionUpdated:
		var payload game.View
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeScreenChanged:
		var payload kiosk.ScreenState
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil
	}
}
