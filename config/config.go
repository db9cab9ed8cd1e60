// Package config reads the orbit-sim INI configuration file
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"gopkg.in/gcfg.v1"

	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/engine"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/status"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("config: invalid")

// Simulation is the [simulation] section
type Simulation struct {
	Timestep          float64 // Base step, simulated seconds
	Units             string  // m or km
	Speed             float64 // Initial speed
	MaxSpeed          float64 `gcfg:"max-speed"`
	FrameFloor        float64 `gcfg:"frame-floor"` // Minimum fps before frames are clamped; 0 disables
	MaxSubsteps       int     `gcfg:"max-substeps"`
	Workers           int     // 0 uses every CPU
	ParallelThreshold int     `gcfg:"parallel-threshold"`
	PreviewMaxSteps   int     `gcfg:"preview-max-steps"`
	SaveDir           string  `gcfg:"save-dir"`
	SaveFile          string  `gcfg:"save-file"`
}

// Control is the [control] section; an empty Listen disables the websocket endpoint
type Control struct {
	Listen string
	Rate   float64 // Commands per second per connection
	Burst  int
}

// Metrics is the [metrics] section; an empty Listen disables the Prometheus endpoint
type Metrics struct {
	Listen string
}

// Log is the [log] section
type Log struct {
	Debug bool
	Dir   string
}

// Config is the whole file
type Config struct {
	Simulation Simulation
	Control    Control
	Metrics    Metrics
	Log        Log
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Simulation: Simulation{
			Timestep:          constant.DefaultTimestep,
			Units:             physics.Meters.String(),
			MaxSpeed:          constant.MaxSpeed,
			FrameFloor:        1 / constant.MaxFrameDelta,
			MaxSubsteps:       constant.MaxSubsteps,
			ParallelThreshold: constant.ParallelThreshold,
			PreviewMaxSteps:   constant.PreviewMaxSteps,
			SaveDir:           ".",
			SaveFile:          constant.DefaultSaveFile,
		},
		Control: Control{
			Rate:  constant.ControlRateLimit,
			Burst: constant.ControlBurst,
		},
		Log: Log{
			Dir: "logs",
		},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := gcfg.ReadFileInto(cfg, path); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads INI text over the defaults and validates the result
func Parse(text string) (*Config, error) {
	cfg := Default()
	if err := gcfg.ReadStringInto(cfg, text); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field range
func (c *Config) Validate() error {
	s := &c.Simulation
	switch {
	case !positive(s.Timestep):
		return fmt.Errorf("%w: simulation.timestep must be positive, got %g", ErrInvalid, s.Timestep)
	case !positive(s.MaxSpeed):
		return fmt.Errorf("%w: simulation.max-speed must be positive, got %g", ErrInvalid, s.MaxSpeed)
	case s.MaxSpeed > constant.MaxSpeed:
		return fmt.Errorf("%w: simulation.max-speed must not exceed %g, got %g", ErrInvalid, constant.MaxSpeed, s.MaxSpeed)
	case s.Speed < 0 || s.Speed > s.MaxSpeed || math.IsNaN(s.Speed):
		return fmt.Errorf("%w: simulation.speed must be in [0, %g], got %g", ErrInvalid, s.MaxSpeed, s.Speed)
	case s.FrameFloor < 0 || math.IsNaN(s.FrameFloor):
		return fmt.Errorf("%w: simulation.frame-floor must not be negative, got %g", ErrInvalid, s.FrameFloor)
	case s.MaxSubsteps < 1:
		return fmt.Errorf("%w: simulation.max-substeps must be at least 1, got %d", ErrInvalid, s.MaxSubsteps)
	case s.Workers < 0:
		return fmt.Errorf("%w: simulation.workers must not be negative, got %d", ErrInvalid, s.Workers)
	case s.ParallelThreshold < 0:
		return fmt.Errorf("%w: simulation.parallel-threshold must not be negative, got %d", ErrInvalid, s.ParallelThreshold)
	case s.PreviewMaxSteps < 1:
		return fmt.Errorf("%w: simulation.preview-max-steps must be at least 1, got %d", ErrInvalid, s.PreviewMaxSteps)
	case s.SaveFile == "":
		return fmt.Errorf("%w: simulation.save-file is empty", ErrInvalid)
	}
	if _, ok := physics.ParseUnits(s.Units); !ok {
		return fmt.Errorf("%w: simulation.units must be m or km, got %q", ErrInvalid, s.Units)
	}
	if c.Control.Listen != "" {
		if !positive(c.Control.Rate) {
			return fmt.Errorf("%w: control.rate must be positive, got %g", ErrInvalid, c.Control.Rate)
		}
		if c.Control.Burst < 1 {
			return fmt.Errorf("%w: control.burst must be at least 1, got %d", ErrInvalid, c.Control.Burst)
		}
	}
	if c.Log.Debug && c.Log.Dir == "" {
		return fmt.Errorf("%w: log.dir is required when log.debug is set", ErrInvalid)
	}
	return nil
}

// Engine maps the [simulation] section onto engine parameters
func (c *Config) Engine(reg *status.Registry) engine.Config {
	s := c.Simulation
	units, _ := physics.ParseUnits(s.Units)

	workers := s.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	limits := engine.DefaultLimits()
	limits.MaxSubsteps = s.MaxSubsteps
	limits.MaxFrameDelta = 0
	if s.FrameFloor > 0 {
		limits.MaxFrameDelta = 1 / s.FrameFloor
	}

	return engine.Config{
		Timestep:          s.Timestep,
		Units:             units,
		Speed:             s.Speed,
		MaxSpeed:          s.MaxSpeed,
		Limits:            limits,
		Workers:           workers,
		ParallelThreshold: s.ParallelThreshold,
		SaveDir:           s.SaveDir,
		SaveFile:          s.SaveFile,
		PreviewMaxSteps:   s.PreviewMaxSteps,
		Status:            reg,
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
