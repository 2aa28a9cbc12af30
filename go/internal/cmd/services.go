package main

import (
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/lightsout/go/clients/game_api_client"
	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/mcdev12/lightsout/go/internal/gateway"
	"github.com/mcdev12/lightsout/go/internal/kiosk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Store     *game.Store
	Navigator *kiosk.Navigator
	Flow      *kiosk.Flow
	Gateway   *gateway.Service
	Registry  *prometheus.Registry

	nats *game.NATSPublisher
}

func setupServices(config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Game API client → Session store → Screen flow → Gateway
	clock := clockwork.NewRealClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := game_api_client.NewGameApiClient(config.GameAPI.URL, config.GameAPI.Timeout)
	log.Info().Str("base_url", client.BaseURL()).Msg("game api client configured")

	var publisher game.Publisher = game.NoOpPublisher{}
	var natsPublisher *game.NATSPublisher
	if config.NATS.URL != "" {
		p, err := game.ConnectNATS(config.NATS.URL, config.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		natsPublisher = p
		publisher = p
		log.Info().Str("nats_url", config.NATS.URL).Msg("publishing session events to NATS")
	}

	store := game.NewStore(client, game.Config{
		TickInterval: config.Session.TickInterval,
		PollInterval: config.Session.PollInterval,
		Clock:        clock,
		Publisher:    publisher,
		Metrics:      game.NewPrometheusMetrics(registry),
	})

	navigator := kiosk.NewNavigator(clock)
	flow := kiosk.NewFlow(store, navigator, kiosk.FlowConfig{
		CountdownLights: config.Flow.CountdownLights,
		CountdownStep:   config.Flow.CountdownStep,
		CompleteDelay:   config.Flow.CompleteDelay,
		Clock:           clock,
	})

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.ElapsedUpdatesPerSecond = config.Gateway.ElapsedUpdatesPerSecond
	gatewayConfig.Clock = clock
	gatewayService := gateway.NewService(gatewayConfig, store, navigator, flow)
	if err := gatewayService.RegisterMetrics(registry); err != nil {
		return nil, err
	}

	return &Services{
		Store:     store,
		Navigator: navigator,
		Flow:      flow,
		Gateway:   gatewayService,
		Registry:  registry,
		nats:      natsPublisher,
	}, nil
}

// Close stops the flow timers and the session tasks, then drains NATS.
func (s *Services) Close() {
	s.Flow.Close()
	s.Store.Close()
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
