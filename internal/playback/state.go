// Package playback owns the per-guild playback queues and the state machine
// that drives them.
package playback

// State is the playback state of one guild.
type State int

const (
	StateIdle      State = iota // no session
	StateLoading                // voice joined or joining, first track resolving
	StatePlaying                // head track playing
	StatePaused                 // head track loaded but paused
	StateAdvancing              // head ended or failed; starting the next one or tearing down
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateAdvancing:
		return "advancing"
	default:
		return "unknown"
	}
}

var transitions = map[State][]State{
	StateIdle:      {StateLoading},
	StateLoading:   {StatePlaying, StateAdvancing, StateIdle},
	StatePlaying:   {StatePaused, StateAdvancing, StateIdle},
	StatePaused:    {StatePlaying, StateAdvancing, StateIdle},
	StateAdvancing: {StatePlaying, StateIdle},
}

// CanTransitionTo reports whether s -> to is an edge of the state machine.
// Staying in the same state is always allowed.
func (s State) CanTransitionTo(to State) bool {
	if s == to {
		return true
	}
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Loaded reports whether a track is bound to a player in this state.
func (s State) Loaded() bool {
	return s == StatePlaying || s == StatePaused
}
