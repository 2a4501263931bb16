package conversation

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
)

// Pairwise is a two-party conversation definition. It holds no run state, so
// one Pairwise may be run repeatedly and concurrently.
type Pairwise struct {
	initiator *agent.Agent
	recipient *agent.Agent
	opts      Options
}

// NewPairwise validates the participants and applies options.
func NewPairwise(initiator, recipient *agent.Agent, optFns ...func(o *Options)) (*Pairwise, error) {
	if initiator == nil || recipient == nil {
		return nil, fmt.Errorf("%w: both participants are required", ErrInvalidParticipants)
	}
	if initiator.Name() == recipient.Name() {
		return nil, fmt.Errorf("%w: duplicate agent name %q", ErrInvalidParticipants, initiator.Name())
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.normalize()

	return &Pairwise{initiator: initiator, recipient: recipient, opts: opts}, nil
}

// Run drives the conversation until a stop rule fires. A non-empty opening
// is sent by the initiator as round one; otherwise the initiator's own reply
// opens the chat.
//
// On a policy failure the partial result (state StateFailed) is returned
// together with a *PolicyInvocationError. Cancelling ctx stops the session
// between rounds with StateAborted.
func (p *Pairwise) Run(ctx context.Context, opening string) (*Result, error) {
	ctx, s := newSession(ctx, "pairwise", p.opts, []*agent.Agent{p.initiator, p.recipient})

	sender, receiver := p.initiator, p.recipient

	var msg core.Message
	if opening != "" {
		msg = core.NewTextMessage(sender.Name(), opening)
	} else {
		var (
			out outcome
			err error
		)
		msg, out, err = s.turn(ctx, sender)
		if err != nil {
			return s.fail(ctx, err)
		}
		if res, done, err := s.stop(ctx, out); done {
			return res, err
		}
	}
	if err := s.emit(msg); err != nil {
		return s.fail(ctx, err)
	}

	for {
		if msg.IsToolCall() {
			if err := s.dispatch(ctx, msg, receiver.Name()); err != nil {
				return s.fail(ctx, err)
			}
		}

		if receiver.IsTermination(msg) {
			feedback, ok, err := p.feedback(ctx, s, receiver)
			if err != nil {
				return s.fail(ctx, err)
			}
			if !ok {
				return s.finish(ctx, StateTerminatedByMessage, nil)
			}
			// The receiver's human answered; that answer is the next message.
			sender, receiver = receiver, sender
			msg = feedback
			if err := s.emit(msg); err != nil {
				return s.fail(ctx, err)
			}
			continue
		}

		if s.rounds >= s.opts.MaxRounds {
			return s.finish(ctx, StateTerminatedByRoundLimit, nil)
		}
		if err := ctx.Err(); err != nil {
			return s.finish(context.WithoutCancel(ctx), StateAborted, err)
		}

		sender, receiver = receiver, sender

		var (
			out outcome
			err error
		)
		msg, out, err = s.turn(ctx, sender)
		if err != nil {
			return s.fail(ctx, err)
		}
		if res, done, err := s.stop(ctx, out); done {
			return res, err
		}
		if err := s.emit(msg); err != nil {
			return s.fail(ctx, err)
		}
	}
}

// feedback asks the human behind a TERMINATE-mode receiver whether to go on.
// It reports false when the conversation should end.
func (p *Pairwise) feedback(ctx context.Context, s *session, receiver *agent.Agent) (core.Message, bool, error) {
	if receiver.HumanInputMode() != agent.HumanInputTerminate || s.rounds >= s.opts.MaxRounds {
		return core.Message{}, false, nil
	}
	prompt := fmt.Sprintf("Provide feedback as %s. Press enter or type '%s' to end the conversation", receiver.Name(), agent.ExitCommand)
	answer, asked, err := s.askHuman(ctx, receiver, prompt)
	if err != nil || !asked || answer == "" || answer == agent.ExitCommand {
		return core.Message{}, false, err
	}
	s.counter.Reset(receiver.Name())
	return core.NewTextMessage(receiver.Name(), answer), true, nil
}
