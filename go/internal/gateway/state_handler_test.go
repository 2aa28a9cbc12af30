package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/mcdev12/lightsout/go/internal/kiosk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockActionDispatcher is a mock implementation of ActionDispatcher
type MockActionDispatcher struct {
	mock.Mock
}

func (m *MockActionDispatcher) Dispatch(ctx context.Context, action kiosk.Action, target string) error {
	args := m.Called(ctx, action, target)
	return args.Error(0)
}

func newTestMux(t *testing.T, actions ActionDispatcher) (*http.ServeMux, *game.Store, *kiosk.Navigator) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := game.NewStore(nil, game.Config{Clock: clock})
	t.Cleanup(store.Close)
	nav := kiosk.NewNavigator(clock)

	mux := http.NewServeMux()
	NewStateHandler(store, nav, actions).RegisterStateRoutes(mux)
	return mux, store, nav
}

func TestStateHandler_GetGameState(t *testing.T) {
	mux, _, _ := newTestMux(t, new(MockActionDispatcher))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/game/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view game.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, "0.00", view.ElapsedTimeFormatted)
	assert.Len(t, view.Ports, game.BoardPorts)
	assert.Equal(t, game.PortInactive, view.Ports[7])
}

func TestStateHandler_GetScreen(t *testing.T) {
	mux, _, nav := newTestMux(t, new(MockActionDispatcher))
	nav.Go(kiosk.ScreenFinalScore)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kiosk/screen", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var screen kiosk.ScreenState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
	assert.Equal(t, kiosk.ScreenFinalScore, screen.Screen)
	assert.Equal(t, "/finalscore", screen.Path)
}

func TestStateHandler_Action(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		action     kiosk.Action
		target     string
		err        error
		wantStatus int
	}{
		{
			name:       "advance",
			url:        "/api/kiosk/actions/advance",
			action:     kiosk.ActionAdvance,
			wantStatus: http.StatusOK,
		},
		{
			name:       "navigate with screen",
			url:        "/api/kiosk/actions/navigate?screen=globe",
			action:     kiosk.ActionNavigate,
			target:     "globe",
			wantStatus: http.StatusOK,
		},
		{
			name:       "not allowed on screen",
			url:        "/api/kiosk/actions/reset",
			action:     kiosk.ActionReset,
			err:        fmt.Errorf("%w: reset on intro", kiosk.ErrActionNotAllowed),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown screen",
			url:        "/api/kiosk/actions/navigate?screen=garage",
			action:     kiosk.ActionNavigate,
			target:     "garage",
			err:        fmt.Errorf("%w: garage", kiosk.ErrUnknownScreen),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unexpected failure",
			url:        "/api/kiosk/actions/video-ended",
			action:     kiosk.ActionVideoEnded,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := new(MockActionDispatcher)
			actions.On("Dispatch", mock.Anything, tt.action, tt.target).Return(tt.err).Once()
			mux, _, _ := newTestMux(t, actions)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err != nil {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Error)
			}
			actions.AssertExpectations(t)
		})
	}
}

func TestStateHandler_ActionRequiresPost(t *testing.T) {
	mux, _, _ := newTestMux(t, new(MockActionDispatcher))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kiosk/actions/advance", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
