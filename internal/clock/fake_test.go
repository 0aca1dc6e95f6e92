package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var order []int
	var seen []time.Time
	c.AfterFunc(30*time.Millisecond, func() { order = append(order, 3); seen = append(seen, c.Now()) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 1); seen = append(seen, c.Now()) })
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, 2); seen = append(seen, c.Now()) })

	c.Advance(25 * time.Millisecond)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order %v", order)
	}
	if !seen[0].Equal(start.Add(10*time.Millisecond)) || !seen[1].Equal(start.Add(20*time.Millisecond)) {
		t.Fatalf("callbacks should observe their deadline, got %v", seen)
	}
	if !c.Now().Equal(start.Add(25 * time.Millisecond)) {
		t.Fatalf("expected clock at +25ms, got %v", c.Now().Sub(start))
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending waiter, got %d", c.Pending())
	}
}

func TestFakeStopPreventsFire(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected first stop to succeed")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestFakeRearmFromCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(10*time.Millisecond, tick)
	}
	c.AfterFunc(10*time.Millisecond, tick)

	c.Advance(100 * time.Millisecond)
	if ticks != 10 {
		t.Fatalf("expected 10 ticks, got %d", ticks)
	}
}
