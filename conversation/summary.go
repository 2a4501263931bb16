package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

// Summarizer condenses a finished transcript, e.g. as carry-over for the
// next chat of a Sequence.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []core.Message) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, msgs []core.Message) (string, error)

// Summarize implements Summarizer.
func (f SummarizerFunc) Summarize(ctx context.Context, msgs []core.Message) (string, error) {
	return f(ctx, msgs)
}

// LastMessage uses the text of the last message that has any.
type LastMessage struct{}

// Summarize implements Summarizer.
func (LastMessage) Summarize(_ context.Context, msgs []core.Message) (string, error) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(msgs[i].Content); text != "" {
			return text, nil
		}
	}
	return "", nil
}

// DefaultReflectionPrompt is sent after the transcript by Reflection.
const DefaultReflectionPrompt = "Summarize the takeaway from the conversation. Do not add any introductory phrases."

// Reflection asks a policy backend to summarize the conversation.
type Reflection struct {
	Model  model.Model
	Prompt string
}

// Summarize implements Summarizer.
func (r Reflection) Summarize(ctx context.Context, msgs []core.Message) (string, error) {
	if r.Model == nil {
		return "", errors.New("reflection summary: no model configured")
	}
	prompt := r.Prompt
	if prompt == "" {
		prompt = DefaultReflectionPrompt
	}

	contents := make([]core.Content, 0, len(msgs)+1)
	for _, m := range msgs {
		if text := m.Text(); text != "" {
			contents = append(contents, core.NewTextContent(core.RoleUser, m.Sender+": "+text))
		}
	}
	contents = append(contents, core.NewTextContent(core.RoleUser, prompt))

	resp, err := model.Collect(ctx, r.Model, model.Request{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("reflection summary: %w", err)
	}
	return strings.TrimSpace(resp.Content.Text()), nil
}
