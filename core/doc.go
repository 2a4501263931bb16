// Package core provides the foundational domain types shared by agentchat's
// agents, tools, model adapters and conversation engine:
//
//   - Messages (transcript entries with optional tool call / tool result)
//   - Transcripts (ordered, append-only, closable message records)
//   - Termination predicates (pure functions over a Message)
//   - Content and Parts (role-based payloads exchanged with policy backends)
//
// The package keeps orchestration concerns out of scope so that it can be
// imported by every other package without cycles.
package core
