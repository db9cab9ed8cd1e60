package engine

import (
	"runtime"

	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/status"
)

// Config parameterises a Simulation
type Config struct {
	Timestep float64 // Base physics step in simulated seconds
	Units    physics.Units
	Speed    float64 // Initial speed
	MaxSpeed float64
	Limits   Limits

	// Workers is the pool size; ParallelThreshold is the numeric body count below
	// which a frame is integrated on the calling goroutine
	Workers           int
	ParallelThreshold int

	SaveDir  string
	SaveFile string

	// PreviewMaxSteps caps the substeps of one Preview or Trajectory call
	PreviewMaxSteps int

	// Status receives engine metrics; nil allocates a private registry
	Status *status.Registry
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Timestep:          constant.DefaultTimestep,
		Units:             physics.Meters,
		MaxSpeed:          constant.MaxSpeed,
		Limits:            DefaultLimits(),
		Workers:           runtime.NumCPU(),
		ParallelThreshold: constant.ParallelThreshold,
		SaveDir:           ".",
		SaveFile:          constant.DefaultSaveFile,
		PreviewMaxSteps:   constant.PreviewMaxSteps,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Timestep <= 0 {
		c.Timestep = d.Timestep
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = d.MaxSpeed
	}
	if c.Limits == (Limits{}) {
		c.Limits = d.Limits
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.ParallelThreshold < 0 {
		c.ParallelThreshold = 0
	}
	if c.SaveDir == "" {
		c.SaveDir = d.SaveDir
	}
	if c.SaveFile == "" {
		c.SaveFile = d.SaveFile
	}
	if c.PreviewMaxSteps <= 0 {
		c.PreviewMaxSteps = d.PreviewMaxSteps
	}
	if c.Status == nil {
		c.Status = status.NewRegistry()
	}
}
