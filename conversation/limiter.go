package conversation

import "sync"

// replyCounter tracks consecutive automatic replies per agent for the
// duration of one session.
type replyCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newReplyCounter() *replyCounter {
	return &replyCounter{counts: make(map[string]int)}
}

// Increment records one automatic reply and returns the new count.
func (c *replyCounter) Increment(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
	return c.counts[name]
}

// Exhausted reports whether name has used up max replies. max == 0 is unlimited.
func (c *replyCounter) Exhausted(name string, max int) bool {
	if max == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name] >= max
}

// Reset clears the count after a human spoke for the agent.
func (c *replyCounter) Reset(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, name)
}

// Count returns the current count.
func (c *replyCounter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}
