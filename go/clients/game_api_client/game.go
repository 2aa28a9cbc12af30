package game_api_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrStartRejected is returned when the backend answers a start request
// with success=false.
var ErrStartRejected = errors.New("game start rejected by backend")

type StartRequest struct {
	TargetPorts []int `json:"targetPorts"`
}

type StartResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// Port is one socket on the physical board.
type Port struct {
	Port     int    `json:"port"`
	IsTarget bool   `json:"isTarget"`
	Status   string `json:"status"`
}

func (p Port) IsUp() bool {
	return p.Status == PortStatusUp
}

// Status is the board snapshot returned by GET /game/status. EndTime is set
// by the backend once every target port is up.
type Status struct {
	Ports            []Port     `json:"ports"`
	CompletedTargets int        `json:"completedTargets"`
	EndTime          *time.Time `json:"endTime,omitempty"`
}

// FindPort returns the record for a port number, if the board reported it.
func (s *Status) FindPort(number int) (Port, bool) {
	if s == nil {
		return Port{}, false
	}
	for _, p := range s.Ports {
		if p.Port == number {
			return p, true
		}
	}
	return Port{}, false
}

// StartGame registers the target ports with the backend and returns the
// issued session.
func (c *GameApiClient) StartGame(ctx context.Context, targetPorts []int) (*StartResponse, error) {
	body, err := c.PostJSON(ctx, StartEndpoint, StartRequest{TargetPorts: targetPorts})
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	var response StartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	if !response.Success {
		return nil, ErrStartRejected
	}

	return &response, nil
}

func (c *GameApiClient) GetStatus(ctx context.Context) (*Status, error) {
	body, err := c.Get(ctx, StatusEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get game status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	return &status, nil
}

func (c *GameApiClient) ResetGame(ctx context.Context) error {
	if _, err := c.PostJSON(ctx, ResetEndpoint, nil); err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}
	return nil
}
