package app

import (
	"sync"
	"time"

	"quizrush/internal/clock"
)

// DefaultTick is how often a running countdown samples the clock.
const DefaultTick = 10 * time.Millisecond

// Countdown is a single-shot, drift-corrected question timer. Each tick
// subtracts the wall-clock delta since the previous tick, so a late tick costs
// exactly the time that passed. Expiry fires at most once per Start.
type Countdown struct {
	clock    clock.Clock
	budget   time.Duration
	interval time.Duration

	mu        sync.Mutex
	gen       uint64
	running   bool
	remaining time.Duration
	lastTick  time.Time
	timer     *clock.Timer
	onExpire  func()
}

func NewCountdown(clk clock.Clock, budget, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Countdown{clock: clk, budget: budget, interval: interval, remaining: budget}
}

// Budget returns the full duration each Start arms.
func (c *Countdown) Budget() time.Duration { return c.budget }

// Start cancels any running countdown and arms a fresh budget. onExpire is
// called without internal locks held.
func (c *Countdown) Start(onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.running = true
	c.remaining = c.budget
	c.lastTick = c.clock.Now()
	c.onExpire = onExpire
	c.scheduleLocked(c.gen)
}

// Stop cancels the countdown and reports the budget left at this instant and
// whether it was still running. After Stop returns no tick from the cancelled
// run can change state or fire expiry.
func (c *Countdown) Stop() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return 0, false
	}
	remaining := c.liveRemainingLocked()
	c.stopLocked()
	c.remaining = remaining
	return remaining, true
}

// Remaining returns the budget left, accounting for time since the last tick.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return c.remaining
	}
	return c.liveRemainingLocked()
}

// Running reports whether a countdown is armed.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	if delta := now.Sub(c.lastTick); delta > 0 {
		c.remaining -= delta
	}
	c.lastTick = now

	if c.remaining > 0 {
		c.scheduleLocked(gen)
		c.mu.Unlock()
		return
	}

	// Overrun clamps to zero and expires on this tick.
	c.remaining = 0
	c.running = false
	c.timer = nil
	c.gen++
	fn := c.onExpire
	c.onExpire = nil
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *Countdown) scheduleLocked(gen uint64) {
	c.timer = c.clock.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
	c.onExpire = nil
	c.gen++
}

func (c *Countdown) liveRemainingLocked() time.Duration {
	remaining := c.remaining
	if delta := c.clock.Now().Sub(c.lastTick); delta > 0 {
		remaining -= delta
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
