package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/core"
)

// ServiceName identifies the frame runner in the service hub
const ServiceName = "simulation"

// Runner drives Simulation.Update on a fixed real-time interval
// Frame deltas come from a pausable FrameClock so paused time is never simulated;
// commands keep draining while paused
type Runner struct {
	sim      *Simulation
	clock    *FrameClock
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// Latest plan for the host, dropped when the host lags
	frames chan Plan
}

// NewRunner creates a runner; interval <= 0 uses 60 fps, nil source uses the system clock
func NewRunner(sim *Simulation, interval time.Duration, source TimeSource) *Runner {
	if interval <= 0 {
		interval = constant.DefaultFrameInterval
	}
	return &Runner{
		sim:      sim,
		clock:    NewFrameClock(source),
		interval: interval,
		stopChan: make(chan struct{}),
		frames:   make(chan Plan, 1),
	}
}

func (r *Runner) Name() string           { return ServiceName }
func (r *Runner) Dependencies() []string { return nil }

// Frames delivers the plan of each completed frame
func (r *Runner) Frames() <-chan Plan {
	return r.frames
}

// Start launches the simulation workers and the frame loop
func (r *Runner) Start() error {
	if r.running.CompareAndSwap(false, true) {
		r.sim.Start()
		r.clock.Reset()
		r.wg.Add(1)
		core.Go(r.loop)
	}
	return nil
}

// Stop halts the frame loop and joins the simulation workers
func (r *Runner) Stop() error {
	r.stopOnce.Do(func() {
		if r.running.CompareAndSwap(true, false) {
			close(r.stopChan)
			r.wg.Wait()
			r.sim.Stop()
		}
	})
	return nil
}

func (r *Runner) Pause()  { r.clock.Pause() }
func (r *Runner) Resume() { r.clock.Resume() }

// TogglePause flips the pause state and reports whether the runner is now paused
func (r *Runner) TogglePause() bool {
	if r.clock.IsPaused() {
		r.clock.Resume()
		return false
	}
	r.clock.Pause()
	return true
}

func (r *Runner) IsPaused() bool {
	return r.clock.IsPaused()
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
		}

		plan := r.sim.Update(r.clock.Delta())

		select {
		case r.frames <- plan:
		default:
		}
	}
}
