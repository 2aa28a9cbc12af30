package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gameapi "github.com/mcdev12/lightsout/go/clients/game_api_client"
	"github.com/mcdev12/lightsout/go/internal/game/events"
	"github.com/rs/zerolog/log"
)

// GameClient defines what the store needs from the game backend
type GameClient interface {
	StartGame(ctx context.Context, targetPorts []int) (*gameapi.StartResponse, error)
	GetStatus(ctx context.Context) (*gameapi.Status, error)
	ResetGame(ctx context.Context) error
}

// Config holds the store's timing and collaborators. Zero values fall back
// to DefaultConfig and no-op collaborators.
type Config struct {
	TickInterval time.Duration
	PollInterval time.Duration

	// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
	Clock     clockwork.Clock
	Rand      *rand.Rand
	Publisher Publisher
	Metrics   MetricsCollector
}

// DefaultConfig returns the kiosk defaults: a 10ms display ticker and a one
// second status poll.
func DefaultConfig() Config {
	return Config{
		TickInterval: 10 * time.Millisecond,
		PollInterval: time.Second,
	}
}

// Store is the single owner of the session state. One Store is built at the
// process root and handed to every consumer.
type Store struct {
	client       GameClient
	clock        clockwork.Clock
	rand         *rand.Rand
	publisher    Publisher
	metrics      MetricsCollector
	tickInterval time.Duration
	pollInterval time.Duration

	// refreshMu serialises status fetches so the start refresh and the
	// poller never overlap.
	refreshMu sync.Mutex

	mu       sync.Mutex
	state    State
	epoch    uint64 // bumped on every start and reset; stale work compares against it
	starting bool
	ticker   *periodicTask
	poller   *periodicTask

	watchers      map[int]chan State
	nextWatcherID int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates an idle store
func NewStore(client GameClient, config Config) *Store {
	defaults := DefaultConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(config.Clock.Now().UnixNano()))
	}
	if config.Publisher == nil {
		config.Publisher = NoOpPublisher{}
	}
	if config.Metrics == nil {
		config.Metrics = NoOpMetricsCollector{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		client:       client,
		clock:        config.Clock,
		rand:         config.Rand,
		publisher:    config.Publisher,
		metrics:      config.Metrics,
		tickInterval: config.TickInterval,
		pollInterval: config.PollInterval,
		state:        idleState(),
		watchers:     make(map[int]chan State),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClassifyPort classifies a port against the last known board status.
func (s *Store) ClassifyPort(portNumber int) PortClass {
	return s.Snapshot().ClassifyPort(portNumber)
}

// Watch returns a channel that always holds the latest state. Intermediate
// states may be skipped by slow readers. The returned func unsubscribes and
// closes the channel.
func (s *Store) Watch() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextWatcherID
	s.nextWatcherID++
	s.watchers[id] = ch
	ch <- s.state
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
}

// Start begins a new session. It only runs from the idle phase; any other
// phase, or a start already in flight, yields ErrSessionNotIdle.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.starting || s.state.Phase() != PhaseIdle {
		phase := s.state.Phase()
		s.mu.Unlock()
		log.Warn().Str("phase", string(phase)).Msg("ignoring start - session not idle")
		return ErrSessionNotIdle
	}
	s.starting = true
	epoch := s.epoch
	targetPorts := GenerateTargetPorts(s.rand)
	s.mu.Unlock()

	began := s.clock.Now()
	resp, err := s.client.StartGame(ctx, targetPorts)
	s.metrics.RecordRemoteCall(OpStart, err == nil, s.clock.Since(began))

	s.mu.Lock()
	s.starting = false

	if s.epoch != epoch {
		// A reset landed while the start request was in flight; the reset wins.
		s.mu.Unlock()
		log.Warn().Msg("discarding start - session was reset while starting")
		return fmt.Errorf("%w: session reset while starting", ErrStartFailed)
	}

	if err != nil {
		next := s.state
		next.LastError = startFailedMessage
		s.setStateLocked(next)
		s.mu.Unlock()

		log.Error().Err(err).Ints("target_ports", sortedCopy(targetPorts)).Msg("error starting game")
		s.emit(ctx, events.TypeSessionStartFailed, "", events.SessionStartFailedPayload{
			TargetPorts: targetPorts,
			Error:       err.Error(),
			FailedAt:    s.clock.Now(),
		})
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	startedAt := s.clock.Now()
	s.epoch++
	epoch = s.epoch
	s.setStateLocked(State{
		Active:        true,
		StartedAt:     &startedAt,
		SessionID:     resp.SessionID,
		TargetPortIDs: targetPorts,
	})
	s.startTasksLocked(epoch, resp.SessionID != "")
	s.mu.Unlock()

	log.Info().
		Str("session_id", resp.SessionID).
		Ints("target_ports", sortedCopy(targetPorts)).
		Msg("game started")
	s.emit(ctx, events.TypeSessionStarted, resp.SessionID, events.SessionStartedPayload{
		SessionID:   resp.SessionID,
		TargetPorts: targetPorts,
		StartedAt:   startedAt,
	})

	// Initial board state; failures are recorded and retried by the poller.
	if err := s.refresh(ctx, epoch); err != nil {
		log.Debug().Err(err).Msg("initial status refresh failed")
	}

	return nil
}

// RefreshStatus fetches the board status and records completion the first
// time an end time is reported for an active session.
func (s *Store) RefreshStatus(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	return s.refresh(ctx, epoch)
}

func (s *Store) refresh(ctx context.Context, epoch uint64) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	stale := s.epoch != epoch
	s.mu.Unlock()
	if stale {
		return nil
	}

	began := s.clock.Now()
	status, err := s.client.GetStatus(ctx)
	s.metrics.RecordRemoteCall(OpStatus, err == nil, s.clock.Since(began))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.Debug().Msg("discarding status from a previous session")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStatusFetchFailed, err)
		}
		return nil
	}

	if err != nil {
		next := s.state
		next.LastError = statusFailedMessage
		s.setStateLocked(next)
		s.mu.Unlock()

		log.Error().Err(err).Msg("error fetching game status")
		return fmt.Errorf("%w: %w", ErrStatusFetchFailed, err)
	}

	next := s.state
	next.RemoteStatus = status
	next.LastError = ""

	var completed *events.SessionCompletedPayload
	if status.EndTime != nil && next.Active && next.EndedAt == nil && next.StartedAt != nil {
		endedAt := *status.EndTime
		seconds := endedAt.Sub(*next.StartedAt).Seconds()
		if seconds < 0 {
			// the backend clock may trail the kiosk clock slightly
			seconds = 0
		}
		next.Active = false
		next.EndedAt = &endedAt
		next.CompletionSeconds = &seconds
		next.ElapsedSeconds = seconds
		s.stopTasksLocked()

		completed = &events.SessionCompletedPayload{
			SessionID:         next.SessionID,
			StartedAt:         *next.StartedAt,
			EndedAt:           endedAt,
			CompletionSeconds: seconds,
			CompletedTargets:  status.CompletedTargets,
		}
	}
	s.setStateLocked(next)
	s.mu.Unlock()

	log.Debug().
		Int("completed_targets", status.CompletedTargets).
		Int("ports", len(status.Ports)).
		Msg("game status refreshed")

	if completed != nil {
		s.metrics.RecordCompletion(completed.CompletionSeconds)
		log.Info().
			Str("session_id", completed.SessionID).
			Float64("completion_seconds", completed.CompletionSeconds).
			Msg("game completed")
		s.emit(ctx, events.TypeSessionCompleted, completed.SessionID, *completed)
	}

	return nil
}

// Reset asks the backend to reset and always returns the store to idle,
// whatever the backend answered.
func (s *Store) Reset(ctx context.Context) {
	began := s.clock.Now()
	err := s.client.ResetGame(ctx)
	s.metrics.RecordRemoteCall(OpReset, err == nil, s.clock.Since(began))
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %w", ErrResetFailed, err)).Msg("error resetting game - resetting locally anyway")
	}

	s.mu.Lock()
	prev := s.state
	s.epoch++
	s.stopTasksLocked()
	s.setStateLocked(idleState())
	s.mu.Unlock()

	log.Info().
		Str("session_id", prev.SessionID).
		Str("previous_phase", string(prev.Phase())).
		Msg("game reset")
	s.emit(ctx, events.TypeSessionReset, prev.SessionID, events.SessionResetPayload{
		SessionID:     prev.SessionID,
		PreviousPhase: string(prev.Phase()),
		RemoteFailed:  err != nil,
		ResetAt:       s.clock.Now(),
	})
}

// Close cancels all periodic work and waits for it to finish. The store
// must not be started again afterwards.
func (s *Store) Close() {
	s.cancel()

	s.mu.Lock()
	s.stopTasksLocked()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// tick recomputes the elapsed time for the session identified by epoch.
func (s *Store) tick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || !s.state.Active || s.state.StartedAt == nil {
		return
	}
	next := s.state
	next.ElapsedSeconds = s.clock.Since(*next.StartedAt).Seconds()
	s.setStateLocked(next)
}

func (s *Store) startTasksLocked(epoch uint64, withPoller bool) {
	s.stopTasksLocked()

	s.ticker = startPeriodic(s.ctx, &s.wg, s.clock, "elapsed-ticker", s.tickInterval, func(context.Context) {
		s.tick(epoch)
	})

	if withPoller {
		s.poller = startPeriodic(s.ctx, &s.wg, s.clock, "status-poller", s.pollInterval, func(ctx context.Context) {
			if err := s.refresh(ctx, epoch); err != nil {
				log.Debug().Err(err).Msg("status poll failed")
			}
		})
	}
}

func (s *Store) stopTasksLocked() {
	if s.ticker != nil {
		s.ticker.stop()
		s.ticker = nil
	}
	if s.poller != nil {
		s.poller.stop()
		s.poller = nil
	}
}

// setStateLocked swaps in the next state and hands it to every watcher,
// replacing any value the watcher has not read yet. The active gauge
// follows the state under the same lock.
func (s *Store) setStateLocked(next State) {
	if next.Active != s.state.Active {
		s.metrics.SetActive(next.Active)
	}
	s.state = next
	for _, ch := range s.watchers {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
}

func (s *Store) emit(ctx context.Context, eventType, sessionID string, payload interface{}) {
	envelope, err := NewEnvelope(eventType, sessionID, s.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build session event")
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), envelope); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish session event")
	}
}
