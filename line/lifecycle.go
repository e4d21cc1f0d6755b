package line

// State represents the current lifecycle state of a production line run.
type State int

const (
	// StateCreated indicates the line was built but not started
	StateCreated State = iota
	// StateRunning indicates workers are executing
	StateRunning
	// StateStopped indicates the run completed and workers were joined
	StateStopped
)

// String returns a string representation of the run state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
