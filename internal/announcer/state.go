package announcer

import "fmt"

// State is the announcement session's lifecycle phase.
type State int

const (
	// StateIdle means no session is running.
	StateIdle State = iota
	// StateLoading means the fired alarm is being loaded from the store.
	StateLoading
	// StateAnnouncing means platform resources are being taken and the
	// speech engine awaited.
	StateAnnouncing
	// StateSpeaking means utterances are being spoken.
	StateSpeaking
	// StateRescheduling means the next occurrence is being written back.
	StateRescheduling
	// StateStopped means the session finished and resources are released.
	StateStopped
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAnnouncing:
		return "announcing"
	case StateSpeaking:
		return "speaking"
	case StateRescheduling:
		return "rescheduling"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// legalTransitions is the closed transition table. Stopped loops back to
// Idle when the session slot is reused.
var legalTransitions = map[State][]State{
	StateIdle:         {StateLoading},
	StateLoading:      {StateAnnouncing, StateStopped},
	StateAnnouncing:   {StateSpeaking, StateRescheduling, StateStopped},
	StateSpeaking:     {StateRescheduling, StateStopped},
	StateRescheduling: {StateStopped},
	StateStopped:      {StateIdle, StateLoading},
}

// canTransition reports whether from may move to to.
func canTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}
