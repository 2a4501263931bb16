// Package agent defines conversation participants.
//
// An Agent is a named participant with one of three roles:
//
//	RolePolicy    replies are produced by a policy backend (model.Model)
//	RoleExecutor  no policy; runs tools and code blocks, otherwise replies
//	              with its default auto reply
//	RoleHuman     every reply is solicited from a HumanInput
//
// Agents are immutable after construction and safe to share between
// concurrent sessions. Per-session state such as consecutive auto-reply
// counters lives in the conversation package.
//
// Example:
//
//	assistant, err := agent.NewAssistant("assistant", llm, func(o *agent.Options) {
//	  o.SystemPrompt = agent.NewInstructionFromText("You are a helpful AI assistant.")
//	  o.Tools = []string{"search"}
//	})
package agent
