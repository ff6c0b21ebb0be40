package lifecycle

// State is the automation lifecycle state.
type State int

const (
	// Idle means the controller was built but never started.
	Idle State = iota
	// Running means the observe-decide-dispatch cycle is live.
	Running
	// Paused means operator activity interrupted the cycle; recovery is
	// scheduled automatically.
	Paused
	// Recovering means the controller is re-ensuring the target window and
	// restarting the safety monitor.
	Recovering
	// Stopped is terminal.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Recovering:
		return "recovering"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
