package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentchat/conversation"
	"github.com/hupe1980/agentchat/core"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store archives finished conversation results.
type Store interface {
	Save(res *conversation.Result) error
	Get(id string) (*conversation.Result, error)
	List() []*conversation.Result
}

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a volatile Store keeping results in a process local map.
// It is safe for concurrent access and best suited for tests or short lived
// programs. Results are stored and returned as copies; their transcripts are
// closed and therefore immutable.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[string]*conversation.Result
	order   []string
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{results: make(map[string]*conversation.Result)}
}

// Save archives a finished result. Saving the same id again replaces the
// earlier entry but keeps its position.
func (s *InMemoryStore) Save(res *conversation.Result) error {
	if res == nil || res.ID == "" {
		return errors.New("session: result without id")
	}
	if !res.State.Terminal() {
		return fmt.Errorf("session %s: state %s is not terminal", res.ID, res.State)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[res.ID]; !ok {
		s.order = append(s.order, res.ID)
	}
	cp := *res
	s.results[res.ID] = &cp
	return nil
}

// Get returns a copy of the archived result.
func (s *InMemoryStore) Get(id string) (*conversation.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *res
	return &cp, nil
}

// List returns copies of all results in save order.
func (s *InMemoryStore) List() []*conversation.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*conversation.Result, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.results[id]
		out = append(out, &cp)
	}
	return out
}

// LastMessage returns the newest message of session id sent by sender, or
// by anyone when sender is empty.
func LastMessage(s Store, id, sender string) (core.Message, error) {
	res, err := s.Get(id)
	if err != nil {
		return core.Message{}, err
	}
	msgs := res.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if sender == "" || msgs[i].Sender == sender {
			return msgs[i], nil
		}
	}
	return core.Message{}, fmt.Errorf("%w: no message from %q in %s", ErrNotFound, sender, id)
}
