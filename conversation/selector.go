package conversation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

// SelectionRequest is the input of a speaker selection.
type SelectionRequest struct {
	Transcript   []core.Message
	Candidates   []*agent.Agent // eligible speakers, never empty
	Participants []string
	Previous     string // "" before the first selection
	Round        int
}

// SpeakerSelector chooses the next speaker of a group session. The answer
// must be the name of one of the candidates; anything else (or an error)
// makes the manager fall back to the next eligible agent in order.
type SpeakerSelector interface {
	SelectSpeaker(ctx context.Context, req SelectionRequest) (string, error)
}

// SelectorFunc adapts a plain function to SpeakerSelector.
type SelectorFunc func(ctx context.Context, req SelectionRequest) (string, error)

// SelectSpeaker implements SpeakerSelector.
func (f SelectorFunc) SelectSpeaker(ctx context.Context, req SelectionRequest) (string, error) {
	return f(ctx, req)
}

// RoundRobin picks the first candidate after the previous speaker in
// participant order, wrapping around.
type RoundRobin struct{}

// SelectSpeaker implements SpeakerSelector.
func (RoundRobin) SelectSpeaker(_ context.Context, req SelectionRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", ErrNoEligibleSpeaker
	}
	return nextInOrder(req.Participants, req.Candidates, req.Previous).Name(), nil
}

// nextInOrder returns the first candidate that follows previous in order.
func nextInOrder(order []string, candidates []*agent.Agent, previous string) *agent.Agent {
	byName := make(map[string]*agent.Agent, len(candidates))
	for _, c := range candidates {
		byName[c.Name()] = c
	}

	start := 0
	for i, name := range order {
		if name == previous {
			start = i + 1
			break
		}
	}
	for i := range order {
		if c, ok := byName[order[(start+i)%len(order)]]; ok {
			return c
		}
	}
	return candidates[0]
}

// Random picks a uniformly random candidate.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random selector. The same seed yields the same
// sequence of choices for the same candidates.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed))}
}

// SelectSpeaker implements SpeakerSelector.
func (r *Random) SelectSpeaker(_ context.Context, req SelectionRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", ErrNoEligibleSpeaker
	}
	r.mu.Lock()
	i := r.rng.IntN(len(req.Candidates))
	r.mu.Unlock()
	return req.Candidates[i].Name(), nil
}

// Graph restricts transitions between speakers. Allowed maps a speaker to the
// agents that may follow it; speakers without an entry are unrestricted.
// When more than one candidate remains the decision is delegated to Next
// (RoundRobin when nil).
type Graph struct {
	Allowed map[string][]string
	Next    SpeakerSelector
}

// SelectSpeaker implements SpeakerSelector.
func (g Graph) SelectSpeaker(ctx context.Context, req SelectionRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", ErrNoEligibleSpeaker
	}

	if allowed, ok := g.Allowed[req.Previous]; ok {
		narrowed := make([]*agent.Agent, 0, len(req.Candidates))
		for _, c := range req.Candidates {
			for _, name := range allowed {
				if c.Name() == name {
					narrowed = append(narrowed, c)
					break
				}
			}
		}
		if len(narrowed) == 0 {
			return "", fmt.Errorf("%w: no transition from %s", ErrNoEligibleSpeaker, req.Previous)
		}
		req.Candidates = narrowed
	}

	if len(req.Candidates) == 1 {
		return req.Candidates[0].Name(), nil
	}
	next := g.Next
	if next == nil {
		next = RoundRobin{}
	}
	return next.SelectSpeaker(ctx, req)
}

const rolePlayPrompt = `You are in a role play game. Carefully read the conversation history and carry on the conversation.
The available roles are:
%s

The role who plays next depends on the conversation history.
Each message starts with 'From name:', e.g:
From %s:
//your message//.

Read the conversation and select the next role from [%s] to play. Only return the role.`

// AutoSelector asks a policy backend which candidate should speak next.
type AutoSelector struct {
	Model model.Model
}

// SelectSpeaker implements SpeakerSelector.
func (s AutoSelector) SelectSpeaker(ctx context.Context, req SelectionRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", ErrNoEligibleSpeaker
	}
	if len(req.Candidates) == 1 {
		return req.Candidates[0].Name(), nil
	}
	if s.Model == nil {
		return "", fmt.Errorf("auto selector: no model configured")
	}

	names := make([]string, len(req.Candidates))
	roles := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		names[i] = c.Name()
		roles[i] = c.Name()
		if d := c.Description(); d != "" {
			roles[i] += ": " + d
		}
	}

	contents := make([]core.Content, 0, len(req.Transcript))
	for i, m := range req.Transcript {
		text := m.Text()
		if text == "" && m.ToolCall != nil {
			text = fmt.Sprintf("[requested tool %s]", m.ToolCall.Name)
		}
		contents = append(contents, core.NewTextContent(core.RoleUser, fmt.Sprintf("From %s:%s<eof_msg>round # %d", m.Sender, text, i)))
	}

	resp, err := model.Collect(ctx, s.Model, model.Request{
		Instructions: fmt.Sprintf(rolePlayPrompt, strings.Join(roles, "\n"), names[0], strings.Join(names, ", ")),
		Contents:     contents,
	})
	if err != nil {
		return "", fmt.Errorf("auto selector: %w", err)
	}
	return matchCandidate(resp.Content.Text(), names)
}

// matchCandidate maps a free-form backend answer to a candidate name: an
// exact case-insensitive match (ignoring a "From" prefix and a trailing
// colon) wins, otherwise the answer must mention exactly one candidate.
func matchCandidate(answer string, names []string) (string, error) {
	cleaned := strings.TrimSpace(answer)
	if len(cleaned) >= 5 && strings.EqualFold(cleaned[:5], "from ") {
		cleaned = strings.TrimSpace(cleaned[5:])
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, ":"))

	for _, n := range names {
		if strings.EqualFold(cleaned, n) {
			return n, nil
		}
	}

	lower := strings.ToLower(answer)
	var found []string
	for _, n := range names {
		if strings.Contains(lower, strings.ToLower(n)) {
			found = append(found, n)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSelection, answer)
}
