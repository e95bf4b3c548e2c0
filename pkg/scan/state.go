package scan

// State is the lifecycle state of one assessment. Transitions only move
// forward: Pending -> Resolving -> Probing -> Analyzing -> terminal.
type State string

const (
	StatePending   State = "pending"
	StateResolving State = "resolving"
	StateProbing   State = "probing"
	StateAnalyzing State = "analyzing"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// String returns the state as a string.
func (s State) String() string {
	return string(s)
}
