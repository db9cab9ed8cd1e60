package service

// Service is a long-lived subsystem managed by the Hub
// Simulation engine, metrics endpoint, control channel
//
// Lifecycle:
//  1. Construction with its configuration
//  2. Start() - bind resources, launch goroutines
//  3. [runtime operation]
//  4. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Start before this one
	Dependencies() []string

	// Start begins operation; must not block
	Start() error

	// Stop halts operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
