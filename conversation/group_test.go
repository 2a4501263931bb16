package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

func echoAgents(t testingT, names ...string) []*agent.Agent {
	t.Helper()
	out := make([]*agent.Agent, len(names))
	for i, n := range names {
		out[i] = newAssistant(t, n, model.NewMockModel("gpt-4", "mock"))
	}
	return out
}

func TestGroup_NeverRepeatsSpeakerWhileOthersAreEligible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		rounds := rapid.IntRange(2, 20).Draw(rt, "rounds")
		kind := rapid.SampledFrom([]string{"random", "round_robin", "stubborn", "auto"}).Draw(rt, "selector")

		participants := echoAgents(rt, "alice", "bob", "carol")

		var selector SpeakerSelector
		switch kind {
		case "random":
			selector = NewRandom(seed)
		case "round_robin":
			selector = RoundRobin{}
		case "stubborn":
			// always asks for the previous speaker, which is never a candidate
			selector = SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
				return req.Previous, nil
			})
		case "auto":
			// the selector model keeps answering "alice"
			llm := model.NewMockModel("selector", "mock")
			for range rounds {
				llm.EnqueueText("alice")
			}
			selector = AutoSelector{Model: llm}
		}

		group, err := NewGroup(participants, func(o *GroupOptions) {
			o.MaxRounds = rounds
			o.Selector = selector
		})
		require.NoError(rt, err)
		mgr, err := NewManager("chat_manager", group)
		require.NoError(rt, err)

		res, err := mgr.Run(context.Background(), newExecutor(rt, "user"), "Incident: disk full")
		require.NoError(rt, err)
		require.Equal(rt, StateTerminatedByRoundLimit, res.State)
		require.Equal(rt, rounds, res.Rounds)

		msgs := res.Messages()
		for i := 1; i < len(msgs); i++ {
			require.NotEqual(rt, msgs[i-1].Sender, msgs[i].Sender, "speaker repeated at %d", i)
		}
	})
}

func TestGroup_RoundRobinOrder(t *testing.T) {
	group, err := NewGroup(echoAgents(t, "a", "b", "c"), func(o *GroupOptions) { o.MaxRounds = 7 })
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "go")
	require.NoError(t, err)

	var senders []string
	for _, m := range res.Messages() {
		senders = append(senders, m.Sender)
	}
	assert.Equal(t, []string{"user", "a", "b", "c", "a", "b", "c"}, senders)
}

func TestGroup_InitiatorPredicateEndsChat(t *testing.T) {
	a := newAssistant(t, "classifier", model.NewMockModel("gpt-4", "mock").EnqueueText("High severity"))
	b := newAssistant(t, "rca", model.NewMockModel("gpt-4", "mock").EnqueueText("RCA report. TERMINATE"))
	group, err := NewGroup([]*agent.Agent{a, b})
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	user := newExecutor(t, "user", func(o *agent.Options) { o.IsTermination = core.ContainsToken("TERMINATE") })
	res, err := mgr.Run(context.Background(), user, "Server CPU usage is high.")
	require.NoError(t, err)
	assert.Equal(t, StateTerminatedByMessage, res.State)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, "group", res.Kind)
}

func TestGroup_ExhaustedAgentsAreSkipped(t *testing.T) {
	limited := func(o *agent.Options) { o.MaxConsecutiveAutoReply = 1 }
	a := newAssistant(t, "a", model.NewMockModel("gpt-4", "mock"), limited)
	b := newAssistant(t, "b", model.NewMockModel("gpt-4", "mock"), limited)
	group, err := NewGroup([]*agent.Agent{a, b})
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "start")
	require.NoError(t, err)
	assert.Equal(t, StateTerminatedByReplyLimit, res.State)
	assert.Equal(t, 3, res.Rounds)
}

func TestGroup_SingleSpeakerMayRepeat(t *testing.T) {
	group, err := NewGroup([]*agent.Agent{
		newAssistant(t, "solo", model.NewMockModel("gpt-4", "mock")),
		newExecutor(t, "runner"),
	}, func(o *GroupOptions) { o.MaxRounds = 4 })
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "start")
	require.NoError(t, err)
	assert.Equal(t, StateTerminatedByRoundLimit, res.State)
	for _, m := range res.Messages()[1:] {
		assert.Equal(t, "solo", m.Sender)
	}
}

func TestGroup_ToolDispatch(t *testing.T) {
	mitigation := newAssistant(t, "mitigation",
		model.NewMockModel("gpt-4", "mock").EnqueueToolCall("c1", "add", `{"a":1,"b":1}`),
		func(o *agent.Options) { o.Tools = []string{"add"} })
	rca := newAssistant(t, "rca", model.NewMockModel("gpt-4", "mock"))

	t.Run("executor member runs the tool", func(t *testing.T) {
		group, err := NewGroup([]*agent.Agent{mitigation, newExecutor(t, "executor", func(o *agent.Options) {
			o.Executes = []string{"add"}
		}), rca}, func(o *GroupOptions) {
			o.MaxRounds = 3
			o.Registry = addRegistry(t)
		})
		require.NoError(t, err)
		mgr, err := NewManager("manager", group)
		require.NoError(t, err)

		res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "disk full")
		require.NoError(t, err)

		msgs := res.Messages()
		assertToolSequencing(t, msgs)
		require.True(t, msgs[2].IsToolResult())
		assert.Equal(t, "executor", msgs[2].Sender)
		assert.Equal(t, "2", msgs[2].ToolResult.Content)
		// executors never get the floor
		for _, m := range msgs {
			if !m.IsToolResult() {
				assert.NotEqual(t, "executor", m.Sender)
			}
		}
	})

	t.Run("member executor wins over an executing initiator", func(t *testing.T) {
		llm := model.NewMockModel("gpt-4", "mock").EnqueueToolCall("c1", "add", `{"a":1,"b":1}`)
		caller := newAssistant(t, "mitigation", llm, func(o *agent.Options) { o.Tools = []string{"add"} })
		group, err := NewGroup([]*agent.Agent{caller, newExecutor(t, "executor", func(o *agent.Options) {
			o.Executes = []string{"add"}
		}), rca}, func(o *GroupOptions) {
			o.MaxRounds = 3
			o.Registry = addRegistry(t)
		})
		require.NoError(t, err)
		mgr, err := NewManager("manager", group)
		require.NoError(t, err)

		user := newExecutor(t, "user", func(o *agent.Options) { o.Executes = []string{"add"} })
		res, err := mgr.Run(context.Background(), user, "disk full")
		require.NoError(t, err)

		msgs := res.Messages()
		assertToolSequencing(t, msgs)
		assert.Equal(t, "executor", msgs[2].Sender)
	})

	t.Run("manager reports a missing executor", func(t *testing.T) {
		llm := model.NewMockModel("gpt-4", "mock").EnqueueToolCall("c1", "add", `{"a":1,"b":1}`)
		caller := newAssistant(t, "mitigation", llm, func(o *agent.Options) { o.Tools = []string{"add"} })
		group, err := NewGroup([]*agent.Agent{caller, rca}, func(o *GroupOptions) {
			o.MaxRounds = 3
			o.Registry = addRegistry(t)
		})
		require.NoError(t, err)
		mgr, err := NewManager("manager", group)
		require.NoError(t, err)

		res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "disk full")
		require.NoError(t, err)

		msgs := res.Messages()
		assertToolSequencing(t, msgs)
		assert.Equal(t, "manager", msgs[2].Sender)
		assert.True(t, msgs[2].ToolResult.IsError)
	})
}

func TestGroup_SelectorErrorFallsBack(t *testing.T) {
	group, err := NewGroup(echoAgents(t, "a", "b", "c"), func(o *GroupOptions) {
		o.MaxRounds = 3
		o.Selector = SelectorFunc(func(context.Context, SelectionRequest) (string, error) {
			return "", errors.New("selector down")
		})
	})
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "go")
	require.NoError(t, err)
	msgs := res.Messages()
	assert.Equal(t, "a", msgs[1].Sender)
	assert.Equal(t, "b", msgs[2].Sender)
}

func TestGroup_PolicyFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	failing := newAssistant(t, "a", model.NewMockModel("gpt-4", "mock").EnqueueError(boom))
	group, err := NewGroup([]*agent.Agent{failing, newAssistant(t, "b", model.NewMockModel("gpt-4", "mock"))})
	require.NoError(t, err)
	mgr, err := NewManager("manager", group)
	require.NoError(t, err)

	res, err := mgr.Run(context.Background(), newExecutor(t, "user"), "go")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, res.Rounds)
}

func TestGroup_Validation(t *testing.T) {
	_, err := NewGroup(echoAgents(t, "a", "a"))
	assert.ErrorIs(t, err, ErrInvalidParticipants)

	_, err = NewGroup([]*agent.Agent{newExecutor(t, "runner")})
	assert.ErrorIs(t, err, ErrInvalidParticipants)

	group, err := NewGroup(echoAgents(t, "a", "b"))
	require.NoError(t, err)

	_, err = NewManager("a", group)
	assert.ErrorIs(t, err, ErrInvalidParticipants)

	mgr, err := NewManager("manager", group)
	require.NoError(t, err)
	_, err = mgr.Run(context.Background(), newExecutor(t, "a"), "impostor")
	assert.ErrorIs(t, err, ErrInvalidParticipants)
}

func TestGroup_DefaultSelector(t *testing.T) {
	group, err := NewGroup(echoAgents(t, "a", "b"))
	require.NoError(t, err)
	assert.IsType(t, RoundRobin{}, group.opts.Selector)

	group, err = NewGroup(echoAgents(t, "a", "b"), func(o *GroupOptions) {
		o.SelectorModel = model.NewMockModel("selector", "mock")
	})
	require.NoError(t, err)
	assert.IsType(t, AutoSelector{}, group.opts.Selector)
	assert.Equal(t, []string{"a", "b"}, group.Names())
}
