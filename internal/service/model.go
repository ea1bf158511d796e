package service

import (
	"errors"

	"atlas/internal/intent"
	"atlas/internal/state"
)

var (
	// ErrInvalidInput is returned for a turn without a message.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDiscoveryFailed aborts a turn when POI discovery cannot be trusted.
	ErrDiscoveryFailed = errors.New("poi discovery failed")
)

// Turn is one user message plus the conversation state the client holds.
// UserID is set when the caller is authenticated.
type Turn struct {
	ID      string
	UserID  string
	Message string
	State   state.Conversation
}

// Outcome is the result of applying a turn.
type Outcome struct {
	Intents  []intent.Intent
	Degraded bool
	NoOp     bool
	State    state.Conversation
	// Added lists POI names that were not in the collection before discovery.
	Added   []string
	Removed []string
}

// Buckets groups actionable intent values by what they change.
type Buckets struct {
	AddPOIs            []string
	RemovePOIs         []string
	AddRequirements    []string
	RemoveRequirements []string
}

// Partition sorts intents into buckets, keeping message order within each.
// Other kinds and actions are echoed to the client but change nothing.
func Partition(intents []intent.Intent) Buckets {
	var b Buckets
	for _, in := range intents {
		switch {
		case in.Is(intent.KindPointsOfInterest, intent.ActionAdd):
			b.AddPOIs = append(b.AddPOIs, in.Value)
		case in.Is(intent.KindPointsOfInterest, intent.ActionRemove):
			b.RemovePOIs = append(b.RemovePOIs, in.Value)
		case in.Is(intent.KindScheduleRequirement, intent.ActionAdd):
			b.AddRequirements = append(b.AddRequirements, in.Value)
		case in.Is(intent.KindScheduleRequirement, intent.ActionRemove):
			b.RemoveRequirements = append(b.RemoveRequirements, in.Value)
		}
	}
	return b
}

// Empty reports whether no bucket has work.
func (b Buckets) Empty() bool {
	return len(b.AddPOIs) == 0 && len(b.RemovePOIs) == 0 &&
		len(b.AddRequirements) == 0 && len(b.RemoveRequirements) == 0
}
