package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/lightsout/go/internal/game"
	"github.com/rs/zerolog/log"
)

// Action is a user or operator input delivered to the flow.
type Action string

const (
	ActionAdvance    Action = "advance"
	ActionStart      Action = "start"
	ActionVideoEnded Action = "video-ended"
	ActionReset      Action = "reset"
	ActionNavigate   Action = "navigate"
)

// SessionStore is the part of game.Store the flow drives.
type SessionStore interface {
	Start(ctx context.Context) error
	Reset(ctx context.Context)
	Snapshot() game.State
	Watch() (<-chan game.State, func())
}

type FlowConfig struct {
	CountdownLights int
	CountdownStep   time.Duration
	CompleteDelay   time.Duration
	Clock           clockwork.Clock
}

func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		CountdownLights: 5,
		CountdownStep:   time.Second,
		CompleteDelay:   time.Second,
	}
}

// Flow moves the kiosk between screens and is the only place that starts or
// resets the session on the player's behalf. Timers belong to the screen that
// created them and are cancelled when the screen is left.
type Flow struct {
	store  SessionStore
	nav    *Navigator
	clock  clockwork.Clock
	config FlowConfig

	mu           sync.Mutex
	screenCtx    context.Context
	screenCancel context.CancelFunc
	countingDown bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFlow(store SessionStore, nav *Navigator, config FlowConfig) *Flow {
	defaults := DefaultFlowConfig()
	if config.CountdownLights <= 0 {
		config.CountdownLights = defaults.CountdownLights
	}
	if config.CountdownStep <= 0 {
		config.CountdownStep = defaults.CountdownStep
	}
	if config.CompleteDelay <= 0 {
		config.CompleteDelay = defaults.CompleteDelay
	}
	if config.Clock == nil {
		config.Clock = nav.clock
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		store:  store,
		nav:    nav,
		clock:  config.Clock,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
	f.screenCtx, f.screenCancel = context.WithCancel(ctx)
	return f
}

func (f *Flow) Navigator() *Navigator {
	return f.nav
}

// Dispatch applies action to the current screen. target is only read by
// ActionNavigate and accepts a screen name or path.
func (f *Flow) Dispatch(ctx context.Context, action Action, target string) error {
	f.mu.Lock()
	current := f.nav.Current().Screen

	switch action {
	case ActionAdvance:
		if current != ScreenIntro && current != ScreenHome {
			f.mu.Unlock()
			return notAllowed(action, current)
		}
		f.enterLocked(ScreenGetReady)
		f.mu.Unlock()
		return nil

	case ActionStart:
		if current != ScreenGetReady || f.countingDown {
			f.mu.Unlock()
			return notAllowed(action, current)
		}
		f.countingDown = true
		f.spawnLocked(f.runCountdown)
		f.mu.Unlock()
		return nil

	case ActionVideoEnded:
		if current != ScreenCar {
			f.mu.Unlock()
			return notAllowed(action, current)
		}
		f.enterLocked(ScreenFinalScore)
		f.mu.Unlock()
		return nil

	case ActionReset:
		if current != ScreenFinalScore {
			f.mu.Unlock()
			return notAllowed(action, current)
		}
		f.mu.Unlock()

		// The remote reset may take a while; the lock is not held across it.
		f.store.Reset(ctx)

		f.mu.Lock()
		f.enterLocked(ScreenIntro)
		f.mu.Unlock()
		return nil

	case ActionNavigate:
		f.mu.Unlock()
		screen, err := ParseScreen(target)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.enterLocked(screen)
		f.mu.Unlock()
		return nil

	default:
		f.mu.Unlock()
		return notAllowed(action, current)
	}
}

// Close cancels every screen timer and waits for them to exit.
func (f *Flow) Close() {
	f.cancel()

	f.mu.Lock()
	f.screenCancel()
	f.mu.Unlock()

	f.wg.Wait()
	f.nav.close()
}

func notAllowed(action Action, screen Screen) error {
	return fmt.Errorf("%w: %q on %s", ErrActionNotAllowed, action, screen)
}

// enterLocked leaves the current screen, cancelling its timers, and runs the
// entry behaviour of the next one.
func (f *Flow) enterLocked(screen Screen) {
	f.screenCancel()
	f.screenCtx, f.screenCancel = context.WithCancel(f.ctx)
	f.countingDown = false
	f.nav.Go(screen)

	if screen == ScreenPlayGame {
		f.spawnLocked(f.runPlayGame)
	}
}

// spawnLocked runs fn in the scope of the current screen.
func (f *Flow) spawnLocked(fn func(ctx context.Context)) {
	ctx := f.screenCtx
	if ctx.Err() != nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		fn(ctx)
	}()
}

// transition moves to screen only if ctx still belongs to the current screen.
func (f *Flow) transition(ctx context.Context, screen Screen) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	f.enterLocked(screen)
	return true
}

func (f *Flow) runCountdown(ctx context.Context) {
	f.setCountdown(ctx, 1)
	for lights := 2; lights <= f.config.CountdownLights; lights++ {
		if !f.sleep(ctx, f.config.CountdownStep) {
			return
		}
		f.setCountdown(ctx, lights)
	}

	if !f.sleep(ctx, f.config.CountdownStep) {
		return
	}
	f.transition(ctx, ScreenPlayGame)
}

func (f *Flow) setCountdown(ctx context.Context, lights int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	f.nav.setCountdown(lights)
}

// runPlayGame starts a fresh session and moves on to the car video once it
// completes. A session left completed by an earlier player is reset first.
func (f *Flow) runPlayGame(ctx context.Context) {
	switch f.store.Snapshot().Phase() {
	case game.PhaseCompleted:
		f.store.Reset(ctx)
		if ctx.Err() != nil {
			return
		}
		f.startSession(ctx)
	case game.PhaseIdle:
		f.startSession(ctx)
	}

	updates, unwatch := f.store.Watch()
	defer unwatch()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if state.IsComplete() {
				if f.sleep(ctx, f.config.CompleteDelay) {
					f.transition(ctx, ScreenCar)
				}
				return
			}
		}
	}
}

func (f *Flow) startSession(ctx context.Context) {
	if err := f.store.Start(ctx); err != nil && !errors.Is(err, game.ErrSessionNotIdle) {
		// LastError on the store carries the message for the screen.
		log.Error().Err(err).Msg("failed to start session from play screen")
	}
}

func (f *Flow) sleep(ctx context.Context, d time.Duration) bool {
	timer := f.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
