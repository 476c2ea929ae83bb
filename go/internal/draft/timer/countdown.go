// Package timer runs the per-nominee bid countdown. It only reports expiry;
// it never changes draft state.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Expiry describes a countdown that ran out.
type Expiry struct {
	Label    string
	Deadline time.Time
	FiredAt  time.Time

	gen uint64
}

// Countdown is a single restartable one-shot timer.
type Countdown struct {
	clock    Clock
	duration time.Duration
	onExpire func(Expiry)

	mu       sync.Mutex
	timer    clockwork.Timer
	cancel   chan struct{}
	gen      uint64
	label    string
	deadline time.Time
}

// New returns a stopped countdown. A non-positive duration disables it.
func New(clock Clock, duration time.Duration, onExpire func(Expiry)) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{
		clock:    clock,
		duration: duration,
		onExpire: onExpire,
	}
}

// Duration is the configured countdown length.
func (c *Countdown) Duration() time.Duration { return c.duration }

// Enabled reports whether the countdown ever runs.
func (c *Countdown) Enabled() bool { return c.duration > 0 }

// Restart cancels any running countdown and starts a new one tagged with
// label. It returns the new deadline, or the zero time when disabled.
func (c *Countdown) Restart(label string) time.Time {
	if !c.Enabled() {
		return time.Time{}
	}

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	t := c.clock.NewTimer(c.duration)
	cancel := make(chan struct{})
	c.timer = t
	c.cancel = cancel
	c.label = label
	c.deadline = c.clock.Now().Add(c.duration)
	deadline := c.deadline
	c.mu.Unlock()

	go c.wait(gen, t, cancel)

	log.Debug().
		Str("label", label).
		Time("deadline", deadline).
		Dur("duration", c.duration).
		Msg("bid timer started")
	return deadline
}

func (c *Countdown) wait(gen uint64, t clockwork.Timer, cancel <-chan struct{}) {
	select {
	case firedAt := <-t.Chan():
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		exp := Expiry{Label: c.label, Deadline: c.deadline, FiredAt: firedAt, gen: gen}
		c.timer = nil
		c.cancel = nil
		c.deadline = time.Time{}
		c.mu.Unlock()

		log.Debug().Str("label", exp.Label).Msg("bid timer expired")
		if c.onExpire != nil {
			c.onExpire(exp)
		}
	case <-cancel:
	}
}

// Stop cancels the running countdown, if any.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) stopLocked() {
	c.gen++
	if c.timer == nil {
		return
	}
	stopAndDrainTimer(c.timer)
	close(c.cancel)
	c.timer = nil
	c.cancel = nil
	c.deadline = time.Time{}
}

// Current reports whether exp belongs to the latest countdown, that is no
// Restart or Stop happened after it fired.
func (c *Countdown) Current(exp Expiry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return exp.gen != 0 && exp.gen == c.gen
}

// Remaining returns the time left on the running countdown.
func (c *Countdown) Remaining() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return 0, false
	}
	left := c.deadline.Sub(c.clock.Now())
	if left < 0 {
		left = 0
	}
	return left, true
}

// Deadline returns when the running countdown fires.
func (c *Countdown) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.timer != nil
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
