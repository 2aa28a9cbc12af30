package kiosk

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownScreen    = errors.New("unknown screen")
	ErrActionNotAllowed = errors.New("action not allowed on current screen")
)

// Screen identifies one page of the kiosk front-end.
type Screen string

const (
	ScreenIntro      Screen = "intro"
	ScreenHome       Screen = "home"
	ScreenGetReady   Screen = "get-ready"
	ScreenPlayGame   Screen = "play-game"
	ScreenCar        Screen = "car"
	ScreenFinalScore Screen = "final-score"
	ScreenGlobe      Screen = "globe"
)

// Browser routes served by the front-end for each screen.
var screenPaths = map[Screen]string{
	ScreenIntro:      "/",
	ScreenHome:       "/home",
	ScreenGetReady:   "/getReady",
	ScreenPlayGame:   "/playgame",
	ScreenCar:        "/carpage",
	ScreenFinalScore: "/finalscore",
	ScreenGlobe:      "/globe",
}

// ParseScreen accepts either a screen name or its browser path.
func ParseScreen(value string) (Screen, error) {
	if _, ok := screenPaths[Screen(value)]; ok {
		return Screen(value), nil
	}
	for screen, path := range screenPaths {
		if path == value {
			return screen, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScreen, value)
}

func (s Screen) Path() string {
	return screenPaths[s]
}

// ScreenState is what the front-end needs to render the current page.
type ScreenState struct {
	Screen          Screen    `json:"screen"`
	Path            string    `json:"path"`
	CountdownLights int       `json:"countdownLights"`
	EnteredAt       time.Time `json:"enteredAt"`
}

// Navigator holds the current screen and fans changes out to watchers.
type Navigator struct {
	clock clockwork.Clock

	mu            sync.Mutex
	current       ScreenState
	watchers      map[int]chan ScreenState
	nextWatcherID int
}

func NewNavigator(clock clockwork.Clock) *Navigator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Navigator{
		clock: clock,
		current: ScreenState{
			Screen:    ScreenIntro,
			Path:      ScreenIntro.Path(),
			EnteredAt: clock.Now(),
		},
		watchers: make(map[int]chan ScreenState),
	}
}

func (n *Navigator) Current() ScreenState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Watch returns a latest-value channel of screen changes and a func that
// releases it.
func (n *Navigator) Watch() (<-chan ScreenState, func()) {
	ch := make(chan ScreenState, 1)

	n.mu.Lock()
	id := n.nextWatcherID
	n.nextWatcherID++
	n.watchers[id] = ch
	ch <- n.current
	n.mu.Unlock()

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.watchers[id]; ok {
			delete(n.watchers, id)
			close(ch)
		}
	}
}

// Go switches to screen and clears the countdown.
func (n *Navigator) Go(screen Screen) {
	n.mu.Lock()
	defer n.mu.Unlock()

	from := n.current.Screen
	n.publishLocked(ScreenState{
		Screen:    screen,
		Path:      screen.Path(),
		EnteredAt: n.clock.Now(),
	})

	log.Info().
		Str("from", string(from)).
		Str("to", string(screen)).
		Msg("screen changed")
}

func (n *Navigator) setCountdown(lights int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	next := n.current
	next.CountdownLights = lights
	n.publishLocked(next)
}

func (n *Navigator) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.watchers {
		delete(n.watchers, id)
		close(ch)
	}
}

func (n *Navigator) publishLocked(next ScreenState) {
	n.current = next
	for _, ch := range n.watchers {
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
