// Package conversation drives turn-based exchanges between agents.
//
// Two session kinds are provided:
//
//   - Pairwise: two agents alternate; the receiver of each message decides
//     with its termination predicate whether the chat is over.
//   - Group: a Manager asks a SpeakerSelector who talks next among N agents
//     and the initiating agent's predicate decides termination.
//
// Both kinds share the same turn semantics. A round is one message emitted
// by a sender. When that message requests a tool, the participant that
// executes the tool appends the result before anything else happens; tool
// failures become error results and never end the chat. A failing policy
// call ends the session in StateFailed with a *PolicyInvocationError and the
// partial, closed transcript. Cancellation is honoured between rounds.
//
// Sessions are sequential. Independent sessions may run concurrently (see
// RunParallel) as long as they only share agents, registries and models,
// which are read-only.
package conversation
