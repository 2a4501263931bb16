package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ExitCommand typed by a human ends the conversation.
const ExitCommand = "exit"

// HumanInput solicits a reply from a person. An empty answer means "let the
// agent reply automatically".
type HumanInput interface {
	Prompt(ctx context.Context, agentName, prompt string) (string, error)
}

// ConsoleInput reads answers line by line from In and writes prompts to Out.
// A single background reader owns In, so a prompt abandoned through its
// context leaves the pending line for the next prompt.
type ConsoleInput struct {
	mu    sync.Mutex
	out   io.Writer
	in    io.Reader
	once  sync.Once
	lines chan consoleLine
}

type consoleLine struct {
	text string
	err  error
}

// NewConsoleInput creates a console input over in and out.
func NewConsoleInput(in io.Reader, out io.Writer) *ConsoleInput {
	return &ConsoleInput{out: out, in: in, lines: make(chan consoleLine)}
}

// readLines feeds lines until the first read error, then closes the channel.
func (c *ConsoleInput) readLines() {
	defer close(c.lines)
	reader := bufio.NewReader(c.in)
	for {
		s, err := reader.ReadString('\n')
		c.lines <- consoleLine{text: s, err: err}
		if err != nil {
			return
		}
	}
}

// Prompt implements HumanInput. End of input is treated as "exit".
func (c *ConsoleInput) Prompt(ctx context.Context, agentName, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[%s] %s: ", agentName, prompt); err != nil {
		return "", err
	}
	c.once.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok || (errors.Is(l.err, io.EOF) && l.text == "") {
			return ExitCommand, nil
		}
		if l.err != nil && !errors.Is(l.err, io.EOF) {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// ScriptedInput replays canned answers, then keeps answering "".
type ScriptedInput struct {
	mu      sync.Mutex
	answers []string
	prompts []string
}

// NewScriptedInput creates a ScriptedInput.
func NewScriptedInput(answers ...string) *ScriptedInput {
	return &ScriptedInput{answers: answers}
}

// Prompt implements HumanInput.
func (s *ScriptedInput) Prompt(_ context.Context, agentName, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, agentName)
	if len(s.answers) == 0 {
		return "", nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// Prompts returns the agent names that were prompted, in order.
func (s *ScriptedInput) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
