package session

import (
	"math"
	"sync"
	"time"
)

// countdown tracks the remaining session time. Remaining time is always
// recomputed from the absolute start timestamp, so delayed or coalesced
// ticks cannot drift the clock; the displayed value reaches zero no earlier
// than the requested duration.
type countdown struct {
	duration time.Duration
	start    time.Time
	onTick   func(remainingSeconds int)

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func newCountdown(duration time.Duration, onTick func(remainingSeconds int)) *countdown {
	c := &countdown{
		duration: duration,
		start:    time.Now(),
		onTick:   onTick,
		ticker:   time.NewTicker(250 * time.Millisecond),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *countdown) run() {
	last := -1
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C:
			remaining := c.remaining()
			if remaining == last {
				continue
			}
			last = remaining
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if remaining == 0 {
				c.stop()
				return
			}
		}
	}
}

func (c *countdown) remaining() int {
	left := c.duration - time.Since(c.start)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (c *countdown) stop() {
	c.stopOnce.Do(func() {
		c.ticker.Stop()
		close(c.done)
	})
}
