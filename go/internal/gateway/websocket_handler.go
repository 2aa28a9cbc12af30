package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests from kiosk clients
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshot          func() []*KioskEvent
}

// NewWebSocketHandler creates a handler; snapshot builds the events every
// new connection receives first.
func NewWebSocketHandler(cm *ConnectionManager, snapshot func() []*KioskEvent) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshot:          snapshot,
	}
}

// HandleKioskConnection handles GET /ws/kiosk
func (h *WebSocketHandler) HandleKioskConnection(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = "kiosk"
	}

	// On failure the upgrader has already written an HTTP error response.
	if err := h.connectionManager.UpgradeConnection(w, r, clientID, h.snapshot); err != nil {
		log.Error().
			Err(err).
			Str("client_id", clientID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/kiosk", h.HandleKioskConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
