package conversation

// State is the lifecycle state of a session.
type State int

// Session states. Every state except StateInit and StateRunning is terminal.
const (
	StateInit State = iota
	StateRunning
	StateTerminatedByMessage
	StateTerminatedByRoundLimit
	StateTerminatedByReplyLimit
	StateFailed
	StateAborted
)

var stateNames = map[State]string{
	StateInit:                   "INIT",
	StateRunning:                "RUNNING",
	StateTerminatedByMessage:    "TERMINATED_BY_MESSAGE",
	StateTerminatedByRoundLimit: "TERMINATED_BY_ROUND_LIMIT",
	StateTerminatedByReplyLimit: "TERMINATED_BY_REPLY_LIMIT",
	StateFailed:                 "FAILED",
	StateAborted:                "ABORTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further rounds can happen.
func (s State) Terminal() bool { return s > StateRunning }

// Normal reports whether the session ended by one of its stop rules rather
// than by failure or cancellation.
func (s State) Normal() bool {
	switch s {
	case StateTerminatedByMessage, StateTerminatedByRoundLimit, StateTerminatedByReplyLimit:
		return true
	}
	return false
}
