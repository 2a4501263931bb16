package conversation

import (
	"fmt"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/model"
)

// GroupOptions extend the session options with speaker selection settings.
type GroupOptions struct {
	Options

	// Selector decides who speaks next. Defaults to an AutoSelector when
	// SelectorModel is set and to RoundRobin otherwise.
	Selector      SpeakerSelector
	SelectorModel model.Model

	// AllowRepeatSpeaker lets the previous speaker be chosen again while
	// other agents are eligible.
	AllowRepeatSpeaker bool
}

// Group is the participant set of a multi-agent session plus its settings.
// It holds no run state.
type Group struct {
	participants []*agent.Agent
	opts         GroupOptions
}

// NewGroup validates that names are unique and that at least one participant
// can speak.
func NewGroup(participants []*agent.Agent, optFns ...func(o *GroupOptions)) (*Group, error) {
	seen := make(map[string]bool, len(participants))
	speakers := 0
	for _, p := range participants {
		if p == nil {
			return nil, fmt.Errorf("%w: nil participant", ErrInvalidParticipants)
		}
		if seen[p.Name()] {
			return nil, fmt.Errorf("%w: duplicate agent name %q", ErrInvalidParticipants, p.Name())
		}
		seen[p.Name()] = true
		if p.Speaks() {
			speakers++
		}
	}
	if speakers == 0 {
		return nil, fmt.Errorf("%w: no participant can speak", ErrInvalidParticipants)
	}

	opts := GroupOptions{Options: defaultOptions()}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.normalize()
	if opts.Selector == nil {
		if opts.SelectorModel != nil {
			opts.Selector = AutoSelector{Model: opts.SelectorModel}
		} else {
			opts.Selector = RoundRobin{}
		}
	}

	return &Group{
		participants: append([]*agent.Agent(nil), participants...),
		opts:         opts,
	}, nil
}

// Participants returns the agents in participant order.
func (g *Group) Participants() []*agent.Agent {
	return append([]*agent.Agent(nil), g.participants...)
}

// Names returns the participant names in order.
func (g *Group) Names() []string {
	names := make([]string, len(g.participants))
	for i, p := range g.participants {
		names[i] = p.Name()
	}
	return names
}

// member returns the participant called name.
func (g *Group) member(name string) (*agent.Agent, bool) {
	for _, p := range g.participants {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
