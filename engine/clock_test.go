package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/vi-orbit/constant"
)

func TestClock_SpeedClamp(t *testing.T) {
	c := NewClock(1, constant.MaxSpeed)

	assert.Equal(t, constant.MaxSpeed, c.SetSpeed(1e9), "above max clamps, never wraps or ignores")
	assert.Equal(t, constant.MaxSpeed, c.Speed())

	assert.Equal(t, 0.0, c.SetSpeed(-5))
	assert.Equal(t, 0.0, c.SetSpeed(math.NaN()))
	assert.Equal(t, 42.0, c.SetSpeed(42))
}

func TestClock_SpeedSteps(t *testing.T) {
	c := NewClock(1, constant.MaxSpeed)

	var walked []float64
	for i := 0; i < len(constant.SpeedSteps); i++ {
		walked = append(walked, c.SpeedUp())
	}
	assert.Equal(t, []float64{1, 4, 10, 30, 100, 300, 1000, 2000, 5000, 5000}, walked)

	c.SetSpeed(50)
	assert.Equal(t, 30.0, c.SpeedDown())
	c.SetSpeed(50)
	assert.Equal(t, 100.0, c.SpeedUp())

	c.SetSpeed(1)
	assert.Equal(t, 0.0, c.SpeedDown())
	assert.Equal(t, 0.0, c.SpeedDown())

	c.SetSpeed(20000)
	assert.Equal(t, 20000.0, c.SpeedUp(), "above the table stays put")
	assert.Equal(t, 5000.0, c.SpeedDown())
}

func TestClock_SpeedUpRespectsLowMax(t *testing.T) {
	c := NewClock(1, 100)
	c.SetSpeed(100)
	assert.Equal(t, 100.0, c.SpeedUp())
}

func TestClock_Time(t *testing.T) {
	c := NewClock(0, 0)
	assert.Equal(t, constant.DefaultTimestep, c.Timestep())
	assert.Equal(t, constant.MaxSpeed, c.MaxSpeed())

	c.Advance(10)
	c.Advance(2.5)
	assert.Equal(t, 12.5, c.Time())
	c.SetTime(-1)
	assert.Equal(t, -1.0, c.Time())
}

func TestFrameClock_ExcludesPausedTime(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewMockTime(start)
	c := NewFrameClock(src)

	src.Advance(100 * time.Millisecond)
	assert.InDelta(t, 0.1, c.Delta(), 1e-12)

	src.Advance(20 * time.Millisecond)
	c.Pause()
	assert.True(t, c.IsPaused())
	src.Advance(5 * time.Second)
	assert.Zero(t, c.Delta())
	c.Resume()
	src.Advance(30 * time.Millisecond)

	assert.InDelta(t, 0.05, c.Delta(), 1e-12)

	src.Advance(time.Second)
	c.Reset()
	assert.Zero(t, c.Delta())
}

func TestMockTime(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMockTime(start)
	m.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), m.Now())

	later := start.Add(48 * time.Hour)
	m.Set(later)
	assert.Equal(t, later, m.Now())

	assert.False(t, RealTime{}.Now().IsZero())
}
