package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

func TestRoundRobin(t *testing.T) {
	agents := echoAgents(t, "a", "b", "c")
	order := []string{"a", "b", "c"}

	tests := []struct {
		previous   string
		candidates []*agent.Agent
		want       string
	}{
		{"", agents, "a"},
		{"a", agents[1:], "b"},
		{"c", agents[:2], "a"},
		{"b", []*agent.Agent{agents[0]}, "a"},
		{"outsider", agents[1:], "b"},
	}
	for _, tt := range tests {
		got, err := RoundRobin{}.SelectSpeaker(context.Background(), SelectionRequest{
			Candidates:   tt.candidates,
			Participants: order,
			Previous:     tt.previous,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "previous %q", tt.previous)
	}

	_, err := RoundRobin{}.SelectSpeaker(context.Background(), SelectionRequest{})
	assert.ErrorIs(t, err, ErrNoEligibleSpeaker)
}

func TestRandom_IsReproducible(t *testing.T) {
	agents := echoAgents(t, "a", "b", "c", "d")
	pick := func(seed uint64) []string {
		r := NewRandom(seed)
		var out []string
		for range 20 {
			name, err := r.SelectSpeaker(context.Background(), SelectionRequest{Candidates: agents})
			require.NoError(t, err)
			out = append(out, name)
		}
		return out
	}
	assert.Equal(t, pick(7), pick(7))
}

func TestGraph(t *testing.T) {
	agents := echoAgents(t, "planner", "coder", "reviewer")
	g := Graph{Allowed: map[string][]string{
		"planner":  {"coder"},
		"coder":    {"reviewer", "planner"},
		"reviewer": {},
	}}
	order := []string{"planner", "coder", "reviewer"}

	name, err := g.SelectSpeaker(context.Background(), SelectionRequest{
		Candidates: agents[1:], Participants: order, Previous: "planner",
	})
	require.NoError(t, err)
	assert.Equal(t, "coder", name)

	name, err = g.SelectSpeaker(context.Background(), SelectionRequest{
		Candidates: []*agent.Agent{agents[0], agents[2]}, Participants: order, Previous: "coder",
	})
	require.NoError(t, err)
	assert.Equal(t, "reviewer", name)

	_, err = g.SelectSpeaker(context.Background(), SelectionRequest{
		Candidates: agents[:2], Participants: order, Previous: "reviewer",
	})
	assert.ErrorIs(t, err, ErrNoEligibleSpeaker)

	// unrestricted speakers fall through to the inner selector
	name, err = g.SelectSpeaker(context.Background(), SelectionRequest{
		Candidates: agents, Participants: order, Previous: "user",
	})
	require.NoError(t, err)
	assert.Equal(t, "planner", name)
}

func TestMatchCandidate(t *testing.T) {
	names := []string{"agent_incident_class", "agent_mitigation", "agent_RCA"}
	tests := []struct {
		answer string
		want   string
	}{
		{"agent_mitigation", "agent_mitigation"},
		{"From agent_rca:", "agent_RCA"},
		{"  AGENT_INCIDENT_CLASS \n", "agent_incident_class"},
		{"I think agent_mitigation should continue.", "agent_mitigation"},
	}
	for _, tt := range tests {
		got, err := matchCandidate(tt.answer, names)
		require.NoError(t, err, tt.answer)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"nobody", "agent_mitigation or agent_RCA", ""} {
		_, err := matchCandidate(bad, names)
		assert.ErrorIs(t, err, ErrInvalidSelection, bad)
	}
}

func TestAutoSelector(t *testing.T) {
	agents := echoAgents(t, "alice", "bob")
	llm := model.NewMockModel("selector", "mock").EnqueueText("From bob:")
	transcript := []core.Message{
		core.NewTextMessage("user", "hello"),
		core.NewTextMessage("alice", "hi"),
	}

	name, err := AutoSelector{Model: llm}.SelectSpeaker(context.Background(), SelectionRequest{
		Transcript: transcript,
		Candidates: agents,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "role play game")
	assert.Contains(t, reqs[0].Instructions, "alice, bob")
	require.Len(t, reqs[0].Contents, 2)
	assert.True(t, strings.HasPrefix(reqs[0].Contents[0].Text(), "From user:hello"))

	t.Run("single candidate skips the model", func(t *testing.T) {
		name, err := AutoSelector{}.SelectSpeaker(context.Background(), SelectionRequest{Candidates: agents[:1]})
		require.NoError(t, err)
		assert.Equal(t, "alice", name)
	})

	t.Run("backend errors are returned", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := AutoSelector{Model: model.NewMockModel("s", "mock").EnqueueError(boom)}.
			SelectSpeaker(context.Background(), SelectionRequest{Candidates: agents})
		assert.ErrorIs(t, err, boom)
	})
}
