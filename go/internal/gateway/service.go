package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/mcdev12/lightsout/go/internal/kiosk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Service is the kiosk gateway. It mirrors the session store and the screen
// flow to WebSocket clients and serves the REST surface.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler

	session SessionSource
	screens ScreenSource
	clock   clockwork.Clock

	// elapsed-only session updates share this budget; lifecycle changes bypass it
	limiter *rate.Limiter
}

// Config holds configuration for the kiosk gateway
type Config struct {
	ConnectionConfig ConnectionConfig

	// ElapsedUpdatesPerSecond caps how often a running timer is pushed to clients.
	ElapsedUpdatesPerSecond float64
	Clock                   clockwork.Clock
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig:        DefaultConnectionConfig(),
		ElapsedUpdatesPerSecond: 20,
	}
}

func NewService(config Config, session SessionSource, screens ScreenSource, actions ActionDispatcher) *Service {
	if config.ElapsedUpdatesPerSecond <= 0 {
		config.ElapsedUpdatesPerSecond = DefaultConfig().ElapsedUpdatesPerSecond
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig)
	s := &Service{
		connectionManager: connectionManager,
		stateHandler:      NewStateHandler(session, screens, actions),
		session:           session,
		screens:           screens,
		clock:             config.Clock,
		limiter:           rate.NewLimiter(rate.Limit(config.ElapsedUpdatesPerSecond), 1),
	}
	s.wsHandler = NewWebSocketHandler(connectionManager, s.snapshot)
	return s
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting kiosk gateway service")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.connectionManager.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		s.watchSession(ctx)
	}()
	go func() {
		defer wg.Done()
		s.watchScreens(ctx)
	}()

	<-ctx.Done()
	wg.Wait()

	log.Info().Msg("kiosk gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("kiosk gateway routes registered")
}

// RegisterMetrics exposes the open connection count
func (s *Service) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "kiosk",
		Name:      "gateway_connections",
		Help:      "Open WebSocket connections to the kiosk gateway.",
	}, func() float64 {
		return float64(s.connectionManager.ConnectionCount())
	}))
}

func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

func (s *Service) watchSession(ctx context.Context) {
	updates, unwatch := s.session.Watch()
	defer unwatch()

	var prev game.State
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if first || lifecycleChanged(prev, state) || s.limiter.AllowN(s.clock.Now(), 1) {
				s.broadcastSession(state)
			}
			prev = state
			first = false
		}
	}
}

func (s *Service) watchScreens(ctx context.Context) {
	updates, unwatch := s.screens.Watch()
	defer unwatch()

	for {
		select {
		case <-ctx.Done():
			return
		case screen, ok := <-updates:
			if !ok {
				return
			}
			event, err := NewScreenChangedEvent(screen, s.clock.Now())
			if err != nil {
				log.Error().Err(err).Msg("failed to build screen event")
				continue
			}
			s.connectionManager.Broadcast(event)
		}
	}
}

func (s *Service) broadcastSession(state game.State) {
	event, err := NewSessionUpdatedEvent(state, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build session event")
		return
	}
	s.connectionManager.Broadcast(event)
}

// snapshot is what every new connection receives before live updates.
func (s *Service) snapshot() []*KioskEvent {
	now := s.clock.Now()
	var events []*KioskEvent
	if event, err := NewSessionUpdatedEvent(s.session.Snapshot(), now); err == nil {
		events = append(events, event)
	}
	if event, err := NewScreenChangedEvent(s.screens.Current(), now); err == nil {
		events = append(events, event)
	}
	return events
}

// lifecycleChanged reports whether next differs from prev in anything other
// than the running elapsed time.
func lifecycleChanged(prev, next game.State) bool {
	return prev.Phase() != next.Phase() ||
		prev.SessionID != next.SessionID ||
		prev.LastError != next.LastError ||
		prev.RemoteStatus != next.RemoteStatus ||
		(prev.CompletionSeconds == nil) != (next.CompletionSeconds == nil)
}

var _ ScreenSource = (*kiosk.Navigator)(nil)
var _ SessionSource = (*game.Store)(nil)
var _ ActionDispatcher = (*kiosk.Flow)(nil)
