package engine

import (
	"sync"
	"time"
)

// FrameClock measures real time between frames, excluding time spent paused
type FrameClock struct {
	mu     sync.Mutex
	source TimeSource

	last       time.Time // Reading at the previous Delta
	paused     bool
	pauseStart time.Time
	pausedFor  time.Duration // Paused time not yet subtracted from a delta
}

func NewFrameClock(source TimeSource) *FrameClock {
	if source == nil {
		source = RealTime{}
	}
	return &FrameClock{source: source, last: source.Now()}
}

// Delta returns seconds elapsed since the previous call, minus paused time
// Returns 0 while paused
func (c *FrameClock) Delta() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.source.Now()
	if c.paused {
		return 0
	}

	elapsed := now.Sub(c.last) - c.pausedFor
	c.last = now
	c.pausedFor = 0
	if elapsed < 0 {
		return 0
	}
	return elapsed.Seconds()
}

// Reset discards accumulated time so the next Delta starts from now
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.source.Now()
	c.pausedFor = 0
}

func (c *FrameClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.paused = true
		c.pauseStart = c.source.Now()
	}
}

func (c *FrameClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.paused = false
		c.pausedFor += c.source.Now().Sub(c.pauseStart)
	}
}

func (c *FrameClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
