package engine

// State is the lifecycle state of the managed engine.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the manager's state. Message is set in StateError.
type Status struct {
	State    State
	Progress int
	Message  string
}
