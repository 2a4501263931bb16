package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/conversation"
	"github.com/hupe1980/agentchat/internal/testutil"
)

func result(id string, state conversation.State) *conversation.Result {
	tr := testutil.NewTranscriptBuilder(id).
		Text("user", "hi").
		Text("assistant", "hello").
		Text("user", "bye").
		Build()
	tr.Close()
	return &conversation.Result{ID: id, Kind: "pairwise", State: state, Rounds: 3, Transcript: tr}
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Save(result("s1", conversation.StateTerminatedByMessage)))
	require.NoError(t, s.Save(result("s2", conversation.StateFailed)))

	got, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rounds)

	got.Rounds = 99
	again, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Rounds)

	replaced := result("s1", conversation.StateAborted)
	require.NoError(t, s.Save(replaced))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, conversation.StateAborted, list[0].State)

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_RejectsUnfinished(t *testing.T) {
	s := NewInMemoryStore()
	assert.Error(t, s.Save(nil))
	assert.Error(t, s.Save(&conversation.Result{}))
	assert.Error(t, s.Save(result("s1", conversation.StateRunning)))
	assert.Empty(t, s.List())
}

func TestLastMessage(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Save(result("s1", conversation.StateTerminatedByRoundLimit)))

	m, err := LastMessage(s, "s1", "assistant")
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)

	m, err = LastMessage(s, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "bye", m.Content)

	_, err = LastMessage(s, "s1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Save(result(fmt.Sprintf("s%d", i), conversation.StateTerminatedByMessage))
			_ = s.List()
		}()
	}
	wg.Wait()
	assert.Len(t, s.List(), 20)
}
