package game

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// periodicTask runs a callback on every tick of a clockwork ticker until
// stopped. Ticks that arrive while the callback is still running are
// dropped by the ticker, so callbacks never overlap.
type periodicTask struct {
	name   string
	cancel context.CancelFunc
}

func startPeriodic(parent context.Context, wg *sync.WaitGroup, clock clockwork.Clock, name string, interval time.Duration, fn func(ctx context.Context)) *periodicTask {
	ctx, cancel := context.WithCancel(parent)
	task := &periodicTask{
		name:   name,
		cancel: cancel,
	}

	// Created before the goroutine starts so fake clocks see the waiter immediately.
	ticker := clock.NewTicker(interval)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("task", task.name).Msg("periodic task stopped")
				return
			case <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return task
}

// stop cancels the task without waiting, so it is safe to call from inside
// the task's own callback.
func (t *periodicTask) stop() {
	t.cancel()
}
