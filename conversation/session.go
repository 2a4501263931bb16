package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/tool"
)

// outcome is what a speaker's turn amounts to.
type outcome int

const (
	outcomeMessage outcome = iota
	outcomeExit
	outcomeReplyLimit
)

// session is the mutable state of one run. It is used by a single goroutine.
type session struct {
	kind         string
	id           string
	opts         Options
	participants []*agent.Agent
	transcript   *core.Transcript
	counter      *replyCounter
	state        State
	rounds       int
	logger       logging.Logger
	span         trace.Span
	started      time.Time
}

func newSession(ctx context.Context, kind string, opts Options, participants []*agent.Agent) (context.Context, *session) {
	id := core.NewID()
	ctx, span := opts.Tracer.Start(ctx, "conversation."+kind, trace.WithAttributes(
		attribute.String("conversation.id", id),
		attribute.Int("conversation.max_rounds", opts.MaxRounds),
		attribute.Int("conversation.participants", len(participants)),
	))

	logger := opts.Logger
	if l, ok := logger.(*logging.AgentChatLogger); ok {
		logger = l.WithComponent("conversation").WithSession(id)
	}

	s := &session{
		kind:         kind,
		id:           id,
		opts:         opts,
		participants: participants,
		transcript:   core.NewTranscript(id),
		counter:      newReplyCounter(),
		state:        StateRunning,
		logger:       logger,
		span:         span,
		started:      opts.Clock(),
	}
	s.logger.Info("conversation.start", "kind", kind, "conversation_id", id, "max_rounds", opts.MaxRounds)
	return ctx, s
}

func (s *session) names() []string {
	names := make([]string, len(s.participants))
	for i, p := range s.participants {
		names[i] = p.Name()
	}
	return names
}

// emit appends a sender message and counts the round.
func (s *session) emit(msg core.Message) error {
	if err := s.transcript.Append(msg); err != nil {
		return err
	}
	s.rounds++
	s.span.AddEvent("conversation.message", trace.WithAttributes(
		attribute.Int("round", s.rounds),
		attribute.String("sender", msg.Sender),
		attribute.Bool("tool_call", msg.IsToolCall()),
	))
	if el, ok := s.logger.(logging.EventLogger); ok {
		el.LogRound(s.rounds, msg.Sender, msg.IsToolCall())
	} else {
		s.logger.Debug("conversation.round.completed", "round", s.rounds, "speaker", msg.Sender)
	}
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveRound(s.kind, msg.Sender)
	}
	return nil
}

// turn lets speaker produce its next message.
func (s *session) turn(ctx context.Context, speaker *agent.Agent) (core.Message, outcome, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "conversation.turn", trace.WithAttributes(
		attribute.String("speaker", speaker.Name()),
		attribute.Int("round", s.rounds+1),
	))
	defer span.End()

	msg, out, err := s.reply(ctx, speaker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return msg, out, err
}

func (s *session) reply(ctx context.Context, speaker *agent.Agent) (core.Message, outcome, error) {
	name := speaker.Name()

	if speaker.Role() == agent.RoleHuman || speaker.HumanInputMode() == agent.HumanInputAlways {
		prompt := fmt.Sprintf("Reply as %s. Press enter to skip and use auto-reply, or type '%s' to end the conversation", name, agent.ExitCommand)
		answer, asked, err := s.askHuman(ctx, speaker, prompt)
		if err != nil {
			return core.Message{}, 0, err
		}
		if asked {
			switch answer {
			case agent.ExitCommand:
				return core.Message{}, outcomeExit, nil
			case "":
			default:
				s.counter.Reset(name)
				return core.NewTextMessage(name, answer), outcomeMessage, nil
			}
		}
	}

	if s.counter.Exhausted(name, speaker.MaxConsecutiveAutoReply()) {
		if speaker.HumanInputMode() == agent.HumanInputTerminate {
			answer, asked, err := s.askHuman(ctx, speaker, "Auto-reply limit reached. Type feedback to continue or press enter to stop")
			if err != nil {
				return core.Message{}, 0, err
			}
			if asked && answer != "" && answer != agent.ExitCommand {
				s.counter.Reset(name)
				return core.NewTextMessage(name, answer), outcomeMessage, nil
			}
		}
		s.logger.Info("conversation.reply_limit", "agent", name, "limit", speaker.MaxConsecutiveAutoReply())
		return core.Message{}, outcomeReplyLimit, nil
	}

	msg, err := s.autoReply(ctx, speaker)
	if err != nil {
		return core.Message{}, 0, &PolicyInvocationError{Agent: name, Round: s.rounds + 1, Err: err}
	}
	s.counter.Increment(name)
	return msg, outcomeMessage, nil
}

func (s *session) autoReply(ctx context.Context, speaker *agent.Agent) (core.Message, error) {
	switch speaker.Role() {
	case agent.RolePolicy:
		return speaker.PolicyReply(ctx, agent.ReplyRequest{
			History:      s.transcript.Messages(),
			Tools:        s.toolDefinitions(speaker),
			Participants: s.names(),
			Data:         s.opts.Data,
			Observer:     s.opts.Observer,
		})
	case agent.RoleExecutor:
		if last, ok := s.lastFromOthers(speaker.Name()); ok {
			msg, ran, err := speaker.CodeReply(ctx, last)
			if err != nil {
				return core.Message{}, err
			}
			if ran {
				return msg, nil
			}
		}
	}
	return speaker.FallbackReply(), nil
}

func (s *session) lastFromOthers(name string) (core.Message, bool) {
	msgs := s.transcript.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender != name && !msgs[i].IsToolResult() {
			return msgs[i], true
		}
	}
	return core.Message{}, false
}

func (s *session) toolDefinitions(speaker *agent.Agent) []model.ToolDefinition {
	names := speaker.Tools()
	if len(names) == 0 || s.opts.Registry == nil {
		return nil
	}
	return s.opts.Registry.Definitions(names...)
}

// askHuman returns the answer and whether a human was available at all.
func (s *session) askHuman(ctx context.Context, speaker *agent.Agent, prompt string) (string, bool, error) {
	if s.opts.HumanInput == nil {
		return "", false, nil
	}
	answer, err := s.opts.HumanInput.Prompt(ctx, speaker.Name(), prompt)
	if err != nil {
		return "", true, fmt.Errorf("human input for %s: %w", speaker.Name(), err)
	}
	return answer, true, nil
}

// dispatch runs the tool requested by msg and appends its result. receiver
// authors the error result when no participant executes the tool.
func (s *session) dispatch(ctx context.Context, msg core.Message, receiver string) error {
	call := msg.ToolCall
	result := core.ToolResult{CallID: call.ID, Name: call.Name}
	author := receiver

	executor := s.executorFor(call.Name)
	if executor == nil {
		result.IsError = true
		result.Content = (&tool.ToolExecutionError{Tool: call.Name, Err: errNoExecutor}).Error()
		s.logger.Warn("conversation.tool.no_executor", "tool", call.Name, "caller", msg.Sender)
	} else {
		author = executor.Name()
		content, err := s.invoke(ctx, msg.Sender, executor.Name(), *call)
		if err != nil {
			result.IsError = true
			content = err.Error()
		}
		result.Content = content
	}

	return s.transcript.Append(core.NewToolResultMessage(author, result))
}

var errNoExecutor = errors.New("no participant executes this tool")

func (s *session) executorFor(toolName string) *agent.Agent {
	for _, p := range s.participants {
		if p.Executes(toolName) {
			return p
		}
	}
	return nil
}

func (s *session) invoke(ctx context.Context, caller, executor string, call core.ToolCall) (string, error) {
	if s.opts.Registry == nil {
		return "", &tool.ToolExecutionError{Tool: call.Name, Err: tool.ErrToolNotFound}
	}

	ctx, span := s.opts.Tracer.Start(ctx, "tool.invoke", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.executor", executor),
	))
	defer span.End()

	ctx = tool.WithCallInfo(ctx, tool.CallInfo{CallID: call.ID, Caller: caller, Executor: executor})

	start := time.Now()
	var (
		out string
		err error
	)
	if call.Arguments == nil && call.RawArguments != "" {
		out, err = s.opts.Registry.InvokeJSON(ctx, call.Name, call.RawArguments)
	} else {
		out, err = s.opts.Registry.Invoke(ctx, call.Name, call.Arguments)
	}
	if el, ok := s.logger.(logging.EventLogger); ok {
		el.LogToolCall(call.Name, time.Since(start), err == nil, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// finish closes the transcript and builds the result. err is returned as is.
func (s *session) finish(ctx context.Context, state State, err error) (*Result, error) {
	s.state = state
	s.transcript.Close()

	res := &Result{
		ID:         s.id,
		Kind:       s.kind,
		State:      state,
		Rounds:     s.rounds,
		Transcript: s.transcript,
	}

	if s.opts.Summarizer != nil && state.Normal() {
		summary, sErr := s.opts.Summarizer.Summarize(ctx, s.transcript.Messages())
		if sErr != nil {
			s.logger.Warn("conversation.summary.failed", "error", sErr.Error())
		} else {
			res.Summary = summary
		}
	}

	res.Duration = s.opts.Clock().Sub(s.started)

	s.span.SetAttributes(
		attribute.String("conversation.state", state.String()),
		attribute.Int("conversation.rounds", s.rounds),
	)
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()

	if el, ok := s.logger.(logging.EventLogger); ok {
		el.LogSession(s.kind, state.String(), s.rounds, res.Duration, err)
	} else if err != nil {
		s.logger.Error("conversation.finished", "kind", s.kind, "state", state.String(), "rounds", s.rounds, "error", err.Error())
	} else {
		s.logger.Info("conversation.finished", "kind", s.kind, "state", state.String(), "rounds", s.rounds)
	}
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveSession(s.kind, state.String(), s.rounds, res.Duration)
	}
	return res, err
}

// stop converts a turn outcome that produced no message into the result.
func (s *session) stop(ctx context.Context, out outcome) (*Result, bool, error) {
	var state State
	switch out {
	case outcomeExit:
		state = StateTerminatedByMessage
	case outcomeReplyLimit:
		state = StateTerminatedByReplyLimit
	default:
		return nil, false, nil
	}
	res, err := s.finish(ctx, state, nil)
	return res, true, err
}

// fail maps a turn error to its terminal state: cancellation of the caller's
// context aborts, everything else fails the session.
func (s *session) fail(ctx context.Context, err error) (*Result, error) {
	state := StateFailed
	if ctx.Err() != nil {
		state = StateAborted
	}
	return s.finish(context.WithoutCancel(ctx), state, err)
}
