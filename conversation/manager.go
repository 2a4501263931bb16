package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
)

// Manager drives a Group. Callers only see the Result of a run.
type Manager struct {
	name  string
	group *Group
}

// NewManager binds a group to a manager name. The name authors error results
// for tool calls nobody executes, so it must not clash with a participant.
func NewManager(name string, group *Group) (*Manager, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: manager name must not be empty", ErrInvalidParticipants)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: nil group", ErrInvalidParticipants)
	}
	if _, clash := group.member(name); clash {
		return nil, fmt.Errorf("%w: manager name %q is taken by a participant", ErrInvalidParticipants, name)
	}
	return &Manager{name: name, group: group}, nil
}

// Name returns the manager name.
func (m *Manager) Name() string { return m.name }

// Run opens the group chat on behalf of initiator and lets selected speakers
// reply until the initiator's predicate matches, the round limit is reached
// or no participant is eligible any more. The initiator does not need to be
// a group member; when it is not, it only speaks the opening.
func (m *Manager) Run(ctx context.Context, initiator *agent.Agent, opening string) (*Result, error) {
	if initiator == nil {
		return nil, fmt.Errorf("%w: nil initiator", ErrInvalidParticipants)
	}
	if initiator.Name() == m.name {
		return nil, fmt.Errorf("%w: initiator name %q is taken by the manager", ErrInvalidParticipants, m.name)
	}

	participants := m.group.Participants()
	if p, ok := m.group.member(initiator.Name()); ok {
		if p != initiator {
			return nil, fmt.Errorf("%w: duplicate agent name %q", ErrInvalidParticipants, initiator.Name())
		}
	} else {
		participants = append(participants, initiator)
	}

	opts := m.group.opts
	ctx, s := newSession(ctx, "group", opts.Options, participants)

	var msg core.Message
	if opening != "" {
		msg = core.NewTextMessage(initiator.Name(), opening)
	} else {
		var (
			out outcome
			err error
		)
		msg, out, err = s.turn(ctx, initiator)
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
	previous := initiator.Name()

	for {
		if msg.IsToolCall() {
			if err := s.dispatch(ctx, msg, m.name); err != nil {
				return s.fail(ctx, err)
			}
		}

		if initiator.IsTermination(msg) {
			return s.finish(ctx, StateTerminatedByMessage, nil)
		}
		if s.rounds >= opts.MaxRounds {
			return s.finish(ctx, StateTerminatedByRoundLimit, nil)
		}
		if err := ctx.Err(); err != nil {
			return s.finish(context.WithoutCancel(ctx), StateAborted, err)
		}

		eligible := m.eligible(s, previous)
		if len(eligible) == 0 {
			s.logger.Info("conversation.group.no_eligible_speaker", "round", s.rounds)
			return s.finish(ctx, StateTerminatedByReplyLimit, nil)
		}
		speaker := m.selectSpeaker(ctx, s, eligible, previous)

		var (
			out outcome
			err error
		)
		msg, out, err = s.turn(ctx, speaker)
		if err != nil {
			return s.fail(ctx, err)
		}
		if res, done, err := s.stop(ctx, out); done {
			return res, err
		}
		if err := s.emit(msg); err != nil {
			return s.fail(ctx, err)
		}
		previous = speaker.Name()
	}
}

// eligible lists the group members that may speak next: agents that are not
// pure executors and still have auto replies left. The previous speaker is
// only kept when it is the sole candidate or repeats are allowed.
func (m *Manager) eligible(s *session, previous string) []*agent.Agent {
	var (
		out  []*agent.Agent
		prev *agent.Agent
	)
	for _, p := range m.group.participants {
		if !p.Speaks() || s.counter.Exhausted(p.Name(), p.MaxConsecutiveAutoReply()) {
			continue
		}
		if p.Name() == previous && !m.group.opts.AllowRepeatSpeaker {
			prev = p
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 && prev != nil {
		out = append(out, prev)
	}
	return out
}

// selectSpeaker consults the selector and falls back to the next eligible
// agent after previous when the selector fails or names a non-candidate.
func (m *Manager) selectSpeaker(ctx context.Context, s *session, eligible []*agent.Agent, previous string) *agent.Agent {
	if len(eligible) == 1 {
		return eligible[0]
	}

	name, err := m.group.opts.Selector.SelectSpeaker(ctx, SelectionRequest{
		Transcript:   s.transcript.Messages(),
		Candidates:   eligible,
		Participants: m.group.Names(),
		Previous:     previous,
		Round:        s.rounds + 1,
	})
	if err == nil {
		for _, c := range eligible {
			if c.Name() == name {
				return c
			}
		}
		err = fmt.Errorf("%w: %q", ErrInvalidSelection, name)
	}

	fallback := nextInOrder(m.group.Names(), eligible, previous)
	s.logger.Warn("conversation.selector.fallback", "error", err.Error(), "speaker", fallback.Name())
	s.span.AddEvent("conversation.selector.fallback")
	return fallback
}
