// Package logging provides a minimal logging interface and adapters for agentchat.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that sessions, tools and model adapters use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - AgentChatLogger with component/session context and tool/LLM/session helpers
//   - ZapAdapter for applications already standardised on zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	pair := conversation.NewPairwise(a, b, func(o *conversation.Options) { o.Logger = logger })
package logging
