package executor

// State is the lifecycle position of a Pipeline.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateRunning
	StateExhausted
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}
