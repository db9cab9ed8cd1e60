package event

// Command is a tagged request consumed by the simulation on its own goroutine
// Only the fields relevant to Type are read
type Command struct {
	Type  Type
	Speed float64
	Units string
	Path  string

	// Reply receives the outcome when non-nil; must be buffered, the consumer never blocks on it
	Reply chan<- error
}

// Respond delivers err to the reply channel if one was supplied
func (c Command) Respond(err error) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- err:
	default:
	}
}
