// internal/session/countdown.go
//
// The countdown poll: a repeating, cancellable background tick that
// recomputes the remaining time for display and latches the timed-out
// flag the instant the clock crosses zero. It has no other side
// effects, and it halts itself once the session is expired or stopped.

package session

import (
	"sync"
	"time"
)

// Countdown is a handle on the running poll. Stop is idempotent.
type Countdown struct {
	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// StartCountdown polls s every interval using clock for the current
// time. onTick, if non-nil, receives each recomputed remaining value
// (for display). The goroutine exits on Stop, on session stop, or after
// reporting the zero that expired the session.
func StartCountdown(s *State, interval time.Duration, clock func() time.Time, onTick func(remaining time.Duration, timedOut bool)) *Countdown {
	c := &Countdown{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.quit:
				return
			case <-t.C:
				remaining := s.Remaining(clock())
				if onTick != nil {
					onTick(remaining, s.TimedOut())
				}
				switch s.Phase() {
				case PhaseExpired, PhaseStopped:
					return
				}
			}
		}
	}()
	return c
}

// Stop cancels the poll and waits for the goroutine to exit.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
	<-c.done
}
