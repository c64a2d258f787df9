package session

type State int32

const (
	Idle State = iota
	Connecting
	Active
	Stopping
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}
