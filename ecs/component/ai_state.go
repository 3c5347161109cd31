package component

// StateID identifies an agent steering state.
type StateID string

const (
	StateIdle      StateID = "idle"
	StateFollowing StateID = "following"
)

// AIState stores the current steering state and the behavior that owns the
// agent this tick.
type AIState struct {
	Current  StateID
	Behavior string
}

var AIStateComponent = NewComponent[AIState]()
