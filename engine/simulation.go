package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/epoch"
	"github.com/lixenwraith/vi-orbit/event"
	"github.com/lixenwraith/vi-orbit/persistence"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/registry"
	"github.com/lixenwraith/vi-orbit/status"
	"github.com/lixenwraith/vi-orbit/vmath"
)

var (
	// ErrUnknownBody is returned when an ID no longer resolves
	ErrUnknownBody = errors.New("engine: unknown body")
	// ErrUnknownUnits is returned for unit names other than m and km
	ErrUnknownUnits = errors.New("engine: unknown units")
)

// Simulation owns the registry, clock and worker pool and advances them per frame
// Update and the state-replacing operations (Load, SetUnits) are serialised;
// queries may run concurrently from any goroutine
type Simulation struct {
	cfg   Config
	reg   *registry.Registry
	clock *Clock
	queue *event.Queue
	pool  *Pool
	saves *persistence.Manager

	mu      sync.Mutex // Frame lock
	units   atomic.Uint32
	running atomic.Bool
	clamped int

	// Cached metric pointers
	statTime      *status.AtomicFloat
	statSpeed     *status.AtomicFloat
	statStep      *status.AtomicFloat
	statSubsteps  *atomic.Int64
	statFrames    *atomic.Int64
	statRoundUs   *status.AtomicFloat
	statRoundMax  *status.AtomicFloat
	statClamped   *atomic.Int64
	statCelestial *atomic.Int64
	statOrbital   *atomic.Int64
	statUnconv    *atomic.Int64
	statMaxIter   *atomic.Int64
	statCommands  *atomic.Int64
	statWorkers   *atomic.Int64
	statRunning   *atomic.Bool
}

// New creates a stopped simulation with an empty registry
func New(cfg Config) *Simulation {
	cfg.applyDefaults()
	reg := cfg.Status

	s := &Simulation{
		cfg:   cfg,
		reg:   registry.New(),
		clock: NewClock(cfg.Timestep, cfg.MaxSpeed),
		queue: event.NewQueue(),
		pool:  NewPool(cfg.Workers),
		saves: persistence.NewManager(cfg.SaveDir),

		statTime:      reg.Floats.Get(status.KeySimTime),
		statSpeed:     reg.Floats.Get(status.KeySimSpeed),
		statStep:      reg.Floats.Get(status.KeySimStep),
		statSubsteps:  reg.Ints.Get(status.KeySimSubsteps),
		statFrames:    reg.Ints.Get(status.KeyFrames),
		statRoundUs:   reg.Floats.Get(status.KeyRoundMicros),
		statRoundMax:  reg.Floats.Get(status.KeyRoundMicrosMax),
		statClamped:   reg.Ints.Get(status.KeyClampedFrames),
		statCelestial: reg.Ints.Get(status.KeyCelestial),
		statOrbital:   reg.Ints.Get(status.KeyOrbital),
		statUnconv:    reg.Ints.Get(status.KeyUnconverged),
		statMaxIter:   reg.Ints.Get(status.KeyMaxIterations),
		statCommands:  reg.Ints.Get(status.KeyCommands),
		statWorkers:   reg.Ints.Get(status.KeyWorkers),
		statRunning:   reg.Bools.Get(status.KeyRunning),
	}
	s.units.Store(uint32(cfg.Units))
	s.statWorkers.Store(int64(s.pool.Workers()))
	s.statSpeed.Set(s.clock.SetSpeed(cfg.Speed))
	return s
}

// Start launches the worker pool
func (s *Simulation) Start() {
	if s.running.CompareAndSwap(false, true) {
		s.pool.Start()
		s.statRunning.Store(true)
	}
}

// Stop joins the worker pool after any in-flight frame
func (s *Simulation) Stop() {
	if s.running.CompareAndSwap(true, false) {
		s.mu.Lock()
		s.pool.Stop()
		s.mu.Unlock()
		s.statRunning.Store(false)
	}
}

// Push enqueues a command for the next Update; safe from any goroutine
func (s *Simulation) Push(cmd event.Command) {
	s.queue.Push(cmd)
}

// Update advances the simulation by one rendered frame of frameDelta real seconds
// Pending commands are applied first; with speed 0 no physics work is done
func (s *Simulation) Update(frameDelta float64) Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drainCommands()

	plan := PlanSubsteps(frameDelta, s.clock.Speed(), s.clock.Timestep(), s.cfg.Limits)
	if plan.Clamped {
		s.clamped++
		s.statClamped.Add(1)
		if s.clamped%constant.ClampWarnInterval == 1 {
			log.Printf("[ENGINE] frame delta %.3fs above %.3fs, simulation falls behind real time (%d clamped frames)",
				frameDelta, s.cfg.Limits.MaxFrameDelta, s.clamped)
		}
	}
	if plan.Idle() {
		s.publish(plan, 0)
		return plan
	}

	units := s.Units()
	st := newStepper(s.reg.Bodies(component.Celestial), s.reg.Bodies(component.Orbital), units)

	run := integrate
	if s.running.Load() && len(st.work) >= s.cfg.ParallelThreshold && s.pool.Workers() > 1 {
		run = s.pool.Run
	}

	start := time.Now()
	for i := 0; i < plan.Substeps; i++ {
		st.step(plan.Step, run)
	}
	elapsed := time.Since(start)

	st.refreshElements()
	s.reg.Store(st.celestial)
	s.reg.Store(st.orbital())
	s.clock.Advance(plan.Simulated())

	if st.kepler.unconverged > 0 {
		log.Printf("[ENGINE] kepler solver hit iteration cap %d times this frame", st.kepler.unconverged)
		s.statUnconv.Add(int64(st.kepler.unconverged))
	}
	if int64(st.kepler.maxIterations) > s.statMaxIter.Load() {
		s.statMaxIter.Store(int64(st.kepler.maxIterations))
	}

	s.publish(plan, float64(elapsed.Microseconds())/float64(plan.Substeps))
	return plan
}

func (s *Simulation) publish(plan Plan, roundUs float64) {
	s.statFrames.Add(1)
	s.statTime.Set(s.clock.Time())
	s.statSpeed.Set(s.clock.Speed())
	s.statStep.Set(plan.Step)
	s.statSubsteps.Store(int64(plan.Substeps))
	s.statRoundUs.Set(roundUs)
	s.statRoundMax.Max(roundUs)
	s.statCelestial.Store(int64(s.reg.Len(component.Celestial)))
	s.statOrbital.Store(int64(s.reg.Len(component.Orbital)))
}

// drainCommands applies queued commands in arrival order, frame lock held
func (s *Simulation) drainCommands() {
	for _, cmd := range s.queue.Consume() {
		var err error
		switch cmd.Type {
		case event.SetSpeed:
			s.clock.SetSpeed(cmd.Speed)
		case event.SpeedUp:
			s.clock.SpeedUp()
		case event.SpeedDown:
			s.clock.SpeedDown()
		case event.SetUnits:
			u, ok := physics.ParseUnits(cmd.Units)
			if !ok {
				err = fmt.Errorf("%w: %q", ErrUnknownUnits, cmd.Units)
				break
			}
			s.setUnits(u)
		case event.Save:
			err = s.save(cmd.Path)
		case event.Load:
			err = s.load(cmd.Path)
		default:
			err = fmt.Errorf("engine: unhandled command %s", cmd.Type)
		}
		if err != nil {
			log.Printf("[ENGINE] command %s: %v", cmd.Type, err)
		}
		cmd.Respond(err)
		s.statCommands.Add(1)
	}
	s.statSpeed.Set(s.clock.Speed())
}

// AddBody registers a body
// Celestial bodies with a parent and no elements get elements derived from their state
func (s *Simulation) AddBody(b component.Body) (component.BodyID, error) {
	if b.IsCelestial() && !b.HasElements && b.Parent != component.NoBody {
		if parent, ok := s.reg.Lookup(b.Parent); ok {
			deriveElements(&b, &parent, s.Units())
		}
	}
	if !b.IsCelestial() {
		b.HasElements = false
	}
	return s.reg.Add(b)
}

// RemoveBody deletes a body; children keep a dangling parent and fall back to numeric propagation
func (s *Simulation) RemoveBody(id component.BodyID) bool {
	return s.reg.Remove(id)
}

func deriveElements(b, parent *component.Body, units physics.Units) {
	el := physics.ElementsFromState(
		vmath.V3Sub(b.Position, parent.Position),
		vmath.V3Sub(b.Velocity, parent.Velocity),
		units.Mu(parent.Mass),
	)
	if el.Valid() {
		b.Elements = el
		b.HasElements = true
	}
}

// Registry exposes the body store for queries
func (s *Simulation) Registry() *registry.Registry {
	return s.reg
}

// Bodies returns an ordered copy of one collection
func (s *Simulation) Bodies(kind component.Kind) []component.Body {
	return s.reg.Bodies(kind)
}

// BodiesByName returns a copy of one collection keyed by name
func (s *Simulation) BodiesByName(kind component.Kind) map[string]component.Body {
	return s.reg.ByName(kind)
}

// Time returns simulated seconds since the epoch
func (s *Simulation) Time() float64 {
	return s.clock.Time()
}

// Date returns the current simulated date as HH:MM:SS:DD:MM:YYYY
func (s *Simulation) Date() string {
	return epoch.Format(s.clock.Time())
}

func (s *Simulation) Speed() float64 {
	return s.clock.Speed()
}

// SetSpeed applies immediately, clamped to [0, MaxSpeed]
func (s *Simulation) SetSpeed(v float64) float64 {
	got := s.clock.SetSpeed(v)
	s.statSpeed.Set(got)
	return got
}

func (s *Simulation) SpeedUp() float64 {
	got := s.clock.SpeedUp()
	s.statSpeed.Set(got)
	return got
}

func (s *Simulation) SpeedDown() float64 {
	got := s.clock.SpeedDown()
	s.statSpeed.Set(got)
	return got
}

func (s *Simulation) Timestep() float64 {
	return s.clock.Timestep()
}

func (s *Simulation) Units() physics.Units {
	return physics.Units(s.units.Load())
}

// SetUnits switches the length unit, rescaling every stored length
func (s *Simulation) SetUnits(u physics.Units) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setUnits(u)
}

func (s *Simulation) setUnits(u physics.Units) {
	cur := s.Units()
	if cur == u {
		return
	}
	s.reg.Rescale(cur.RescaleFactor(u))
	s.units.Store(uint32(u))
	log.Printf("[ENGINE] units %s -> %s", cur, u)
}
