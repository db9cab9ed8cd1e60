package engine

import (
	"log"
	"math"
	"sync"

	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// Clock holds simulated time and speed
// Speed is simulated seconds per real second; zero means no work
type Clock struct {
	mu       sync.RWMutex
	elapsed  float64 // Seconds since the epoch
	speed    float64
	maxSpeed float64
	timestep float64
}

func NewClock(timestep, maxSpeed float64) *Clock {
	if timestep <= 0 {
		timestep = constant.DefaultTimestep
	}
	if maxSpeed <= 0 {
		maxSpeed = constant.MaxSpeed
	}
	return &Clock{timestep: timestep, maxSpeed: maxSpeed}
}

func (c *Clock) Time() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

func (c *Clock) SetTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = t
}

// Advance moves simulated time forward by dt seconds
func (c *Clock) Advance(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += dt
}

func (c *Clock) Timestep() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timestep
}

func (c *Clock) Speed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speed
}

func (c *Clock) MaxSpeed() float64 {
	return c.maxSpeed
}

// SetSpeed stores v clamped to [0, MaxSpeed] and returns the stored value
func (c *Clock) SetSpeed(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	clamped := vmath.Clamp(v, 0, c.maxSpeed)
	if clamped != v {
		log.Printf("[CLOCK] speed %g clamped to %g", v, clamped)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = clamped
	return clamped
}

// SpeedUp moves to the smallest preset above the current speed
func (c *Clock) SpeedUp() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range constant.SpeedSteps {
		if s > c.speed && s <= c.maxSpeed {
			c.speed = s
			break
		}
	}
	return c.speed
}

// SpeedDown moves to the largest preset below the current speed
func (c *Clock) SpeedDown() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(constant.SpeedSteps) - 1; i >= 0; i-- {
		if s := constant.SpeedSteps[i]; s < c.speed {
			c.speed = s
			break
		}
	}
	return c.speed
}
