package constant

import "time"

// Speed limits in simulated seconds per real second
const (
	MaxSpeed = 100_000.0
)

// SpeedSteps are the discrete speed levels walked by SpeedUp/SpeedDown
var SpeedSteps = [...]float64{0, 1, 4, 10, 30, 100, 300, 1000, 2000, 5000}

// Scheduler limits
const (
	// MaxFrameDelta bounds per-frame work when the host drops below ~15 fps
	MaxFrameDelta = 0.066666

	// SubstepTolerance is the fractional part below which a substep count is treated as integral
	SubstepTolerance = 0.01

	// MaxSubsteps caps substeps per frame, step size grows past it
	MaxSubsteps = 200_000

	// ClampWarnInterval throttles the low frame rate warning (frames)
	ClampWarnInterval = 60

	// DefaultTimestep is the base physics step in simulated seconds
	DefaultTimestep = 1.0

	// ParallelThreshold is the numeric body count from which frames use the worker pool
	ParallelThreshold = 64

	// PreviewMaxSteps caps substeps of a single preview, step size grows past it
	PreviewMaxSteps = 1_000_000

	// DefaultFrameInterval paces the frame runner (60 fps)
	DefaultFrameInterval = time.Second / 60
)

// DefaultSaveFile is the save name used when a command names no file
const DefaultSaveFile = "orbits.sav"

// Command queue sizing, must be power of 2
const (
	CommandQueueSize = 256
	CommandQueueMask = CommandQueueSize - 1
)

// Control server defaults
const (
	ControlReadLimit    = 4096
	ControlWriteTimeout = 2 * time.Second
	ControlRateLimit    = 10.0
	ControlBurst        = 20
	ControlReplyTimeout = 2 * time.Second
)
