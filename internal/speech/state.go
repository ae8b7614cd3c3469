package speech

// State represents the playback controller state.
type State int

const (
	// StateIdle indicates no playback session is active.
	StateIdle State = iota
	// StatePlaying indicates a playback session is active.
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// StateMachine manages playback state transitions. It is not safe for
// concurrent use; the manager serializes access under its own lock.
type StateMachine struct {
	current     State
	transitions map[State][]State
	onEnter     map[State]func()
	onExit      map[State]func()
}

// NewStateMachine creates a state machine with the valid playback
// transitions. Playing to Playing models the replace of an active session
// by a newer one.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[State][]State{
			StateIdle:    {StatePlaying},
			StatePlaying: {StatePlaying, StateIdle},
		},
		onEnter: make(map[State]func()),
		onExit:  make(map[State]func()),
	}
}

// Transition attempts to transition to the specified state. It returns
// false, changing nothing, when the transition is not valid from the
// current state.
func (sm *StateMachine) Transition(to State) bool {
	validTransitions, ok := sm.transitions[sm.current]
	if !ok {
		return false
	}

	valid := false
	for _, state := range validTransitions {
		if state == to {
			valid = true
			break
		}
	}

	if !valid {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state State, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state State, fn func()) {
	sm.onExit[state] = fn
}
