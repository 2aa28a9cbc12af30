package game_api_client

const (
	// Base URL
	BaseURL = "https://f1backend.vercel.app/api"

	// API Endpoints
	StartEndpoint  = "/game/start"
	StatusEndpoint = "/game/status"
	ResetEndpoint  = "/game/reset"

	// Port statuses reported by the board
	PortStatusUp   = "up"
	PortStatusDown = "down"
)
