package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

// LLMObserver is notified after every policy call.
type LLMObserver interface {
	ObserveLLMCall(agent, model string, dur time.Duration, tokens int, cached bool, err error)
}

// ReplyRequest carries what a policy reply needs from the session.
type ReplyRequest struct {
	History      []core.Message
	Tools        []model.ToolDefinition
	Participants []string
	Data         map[string]any
	Observer     LLMObserver
}

// PolicyReply asks the backend for the agent's next message. The call is
// bounded by the agent timeout. At most one tool call is taken from the
// response.
func (a *Agent) PolicyReply(ctx context.Context, req ReplyRequest) (core.Message, error) {
	if a.model == nil {
		return core.Message{}, fmt.Errorf("agent %s has no policy backend", a.name)
	}

	instructions, err := a.SystemPrompt(NewInstructionContext(req.Participants, req.Data))
	if err != nil {
		return core.Message{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	info := a.model.Info()
	start := time.Now()
	resp, err := model.Collect(callCtx, a.model, model.Request{
		Instructions: instructions,
		Contents:     a.BuildContents(req.History),
		Tools:        req.Tools,
	})
	dur := time.Since(start)

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if req.Observer != nil {
		req.Observer.ObserveLLMCall(a.name, info.Name, dur, tokens, resp.Cached, err)
	}
	if el, ok := a.logger.(logging.EventLogger); ok {
		el.LogLLMCall(info.Name, tokens, dur, err == nil, err)
	} else {
		a.logger.Debug("agent.llm.call", "agent", a.name, "model", info.Name, "duration_ms", dur.Milliseconds(), "cached", resp.Cached)
	}
	if err != nil {
		return core.Message{}, err
	}

	text := resp.Content.Text()
	calls := resp.Content.FunctionCalls()
	if len(calls) == 0 {
		return core.NewTextMessage(a.name, text), nil
	}
	if len(calls) > 1 {
		a.logger.Warn("agent.tool_calls.truncated", "agent", a.name, "requested", len(calls))
	}
	return core.NewToolCallMessage(a.name, text, toolCallFrom(calls[0])), nil
}

// CodeReply executes the runnable code blocks of msg. It reports false when
// the agent has no executor or msg contains nothing to run.
func (a *Agent) CodeReply(ctx context.Context, msg core.Message) (core.Message, bool, error) {
	if a.opts.CodeExecutor == nil {
		return core.Message{}, false, nil
	}
	blocks := code.Executable(code.ExtractBlocks(msg.Content))
	if len(blocks) == 0 {
		return core.Message{}, false, nil
	}

	res, err := a.opts.CodeExecutor.Execute(ctx, blocks)
	if err != nil {
		return core.Message{}, true, fmt.Errorf("agent %s: execute code: %w", a.name, err)
	}
	return core.NewTextMessage(a.name, res.String()), true, nil
}

// FallbackReply is the message an agent sends when it has nothing else to say.
func (a *Agent) FallbackReply() core.Message {
	return core.NewTextMessage(a.name, a.opts.DefaultAutoReply)
}
