package status

import "sync/atomic"

// Metric keys published by the simulation engine
const (
	KeySimTime         = "sim.time"
	KeySimSpeed        = "sim.speed"
	KeySimStep         = "sim.step"
	KeySimSubsteps     = "sim.substeps"
	KeyFrames          = "engine.frames"
	KeyRoundMicros     = "engine.round_us"
	KeyRoundMicrosMax  = "engine.round_us_max"
	KeyClampedFrames   = "engine.clamped_frames"
	KeyWorkers         = "engine.workers"
	KeyRunning         = "engine.running"
	KeyCelestial       = "bodies.celestial"
	KeyOrbital         = "bodies.orbital"
	KeyUnconverged     = "kepler.unconverged"
	KeyMaxIterations   = "kepler.max_iterations"
	KeyCommands        = "commands.processed"
	KeyControlRejected = "control.rejected"
)

// Registry is the metrics facade shared by the engine and the services
// Writers cache pointers at construction; the update path only touches atomics
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// TotalCount returns the number of registered metrics of every type
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count()
}
