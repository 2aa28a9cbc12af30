package game_api_client

import (
	"time"

	"github.com/mcdev12/lightsout/go/clients"
)

type GameApiClient struct {
	*clients.BaseClient
}

// NewGameApiClient builds a client for the game backend. An empty baseURL
// falls back to BaseURL and a zero timeout keeps the BaseClient default.
func NewGameApiClient(baseURL string, timeout time.Duration) *GameApiClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	client := &GameApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return client
}
