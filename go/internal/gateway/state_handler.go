package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/mcdev12/lightsout/go/internal/kiosk"
	"github.com/rs/zerolog/log"
)

// SessionSource is the read side of the session store
type SessionSource interface {
	Snapshot() game.State
	Watch() (<-chan game.State, func())
}

// ScreenSource is the read side of the kiosk navigator
type ScreenSource interface {
	Current() kiosk.ScreenState
	Watch() (<-chan kiosk.ScreenState, func())
}

// ActionDispatcher applies kiosk actions
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action kiosk.Action, target string) error
}

// StateHandler serves the REST side of the kiosk
type StateHandler struct {
	session SessionSource
	screens ScreenSource
	actions ActionDispatcher
}

func NewStateHandler(session SessionSource, screens ScreenSource, actions ActionDispatcher) *StateHandler {
	return &StateHandler{
		session: session,
		screens: screens,
		actions: actions,
	}
}

// HandleGetGameState handles GET /api/game/state
func (h *StateHandler) HandleGetGameState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot().View())
}

// HandleGetScreen handles GET /api/kiosk/screen
func (h *StateHandler) HandleGetScreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.screens.Current())
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleAction handles POST /api/kiosk/actions/{action}
func (h *StateHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	action := kiosk.Action(r.PathValue("action"))
	target := r.URL.Query().Get("screen")

	err := h.actions.Dispatch(r.Context(), action, target)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.screens.Current())
	case errors.Is(err, kiosk.ErrActionNotAllowed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, kiosk.ErrUnknownScreen):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("action", string(action)).Msg("failed to apply kiosk action")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply action"})
	}
}

func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/game/state", h.HandleGetGameState)
	mux.HandleFunc("GET /api/kiosk/screen", h.HandleGetScreen)
	mux.HandleFunc("POST /api/kiosk/actions/{action}", h.HandleAction)
}
