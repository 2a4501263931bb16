package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParticipants is returned for duplicate names or a group
	// without any agent that can speak.
	ErrInvalidParticipants = errors.New("invalid participants")

	// ErrNoEligibleSpeaker is returned by selectors given no candidates.
	ErrNoEligibleSpeaker = errors.New("no eligible speaker")

	// ErrInvalidSelection marks a selector answer that names no candidate.
	ErrInvalidSelection = errors.New("selector returned no valid candidate")
)

// PolicyInvocationError reports that an agent could not produce its reply.
type PolicyInvocationError struct {
	Agent string
	Round int
	Err   error
}

func (e *PolicyInvocationError) Error() string {
	return fmt.Sprintf("policy invocation failed for agent %s in round %d: %v", e.Agent, e.Round, e.Err)
}

func (e *PolicyInvocationError) Unwrap() error { return e.Err }
